package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pivotctl",
	Short: "Command-line client for the PIVOT control plane",
}

func init() {
	rootCmd.PersistentFlags().String("api", "http://127.0.0.1:9000", "pivotd API base URL")

	rootCmd.AddCommand(applianceCmd)
	rootCmd.AddCommand(volumeCmd)

	applianceCmd.AddCommand(applianceListCmd, applianceGetCmd, applianceCreateCmd, applianceDeleteCmd, applianceContainerCmd)
	volumeCmd.AddCommand(volumeListCmd, volumeGetCmd, volumeDeleteCmd)

	applianceCreateCmd.Flags().StringP("file", "f", "", "path to an appliance JSON document (required)")
	_ = applianceCreateCmd.MarkFlagRequired("file")
	applianceDeleteCmd.Flags().Bool("purge-data", false, "also tear down any LOCAL/unsubscribed GLOBAL volumes the appliance declared")
}

// apiClient is a thin wrapper over net/http; pivotd's surface is small
// enough that a generated or hand-rolled RPC client would be overkill.
type apiClient struct {
	base string
}

func clientFor(cmd *cobra.Command) *apiClient {
	base, _ := cmd.Flags().GetString("api")
	return &apiClient{base: base}
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, errBody.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var applianceCmd = &cobra.Command{
	Use:   "appliance",
	Short: "Manage appliances",
}

var applianceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List appliances",
	RunE: func(cmd *cobra.Command, args []string) error {
		var appliances []json.RawMessage
		if err := clientFor(cmd).do(http.MethodGet, "/appliances", nil, &appliances); err != nil {
			return err
		}
		return printJSON(appliances)
	},
}

var applianceGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Display an appliance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var appliance json.RawMessage
		if err := clientFor(cmd).do(http.MethodGet, "/appliances/"+args[0], nil, &appliance); err != nil {
			return err
		}
		return printJSON(appliance)
	},
}

var applianceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit an appliance from a JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var payload json.RawMessage
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		var created json.RawMessage
		if err := clientFor(cmd).do(http.MethodPost, "/appliances", payload, &created); err != nil {
			return err
		}
		return printJSON(created)
	},
}

var applianceDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an appliance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		purge, _ := cmd.Flags().GetBool("purge-data")
		path := "/appliances/" + args[0]
		if purge {
			path += "?purgeData=true"
		}
		if err := clientFor(cmd).do(http.MethodDelete, path, nil, nil); err != nil {
			return err
		}
		fmt.Printf("appliance %s deletion initiated\n", args[0])
		return nil
	},
}

var applianceContainerCmd = &cobra.Command{
	Use:   "container APPLIANCE_ID CONTAINER_ID",
	Short: "Display a single container within an appliance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var container json.RawMessage
		path := "/appliances/" + args[0] + "/containers/" + args[1]
		if err := clientFor(cmd).do(http.MethodGet, path, nil, &container); err != nil {
			return err
		}
		return printJSON(container)
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Manage persistent volumes",
}

var volumeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List volumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		var volumes []json.RawMessage
		if err := clientFor(cmd).do(http.MethodGet, "/volumes", nil, &volumes); err != nil {
			return err
		}
		return printJSON(volumes)
	},
}

var volumeGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Display a volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var volume json.RawMessage
		if err := clientFor(cmd).do(http.MethodGet, "/volumes/"+args[0], nil, &volume); err != nil {
			return err
		}
		return printJSON(volume)
	},
}

var volumeDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Purge a volume directly, independent of any appliance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clientFor(cmd).do(http.MethodDelete, "/volumes/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("volume %s purged\n", args[0])
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
