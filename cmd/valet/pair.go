package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/valetproj/valet/internal/config"
)

// The pair commands talk to the running daemon's admin API; pairing
// codes live only in daemon memory.

var pairAddr string

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Manage paired chat users",
}

var pairListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approved users",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := adminRequest(http.MethodGet, "/pairings", nil)
		if err != nil {
			return err
		}
		var recs []struct {
			Platform   string    `json:"platform"`
			UserID     string    `json:"user_id"`
			Display    string    `json:"display"`
			ApprovedAt time.Time `json:"approved_at"`
		}
		if err := json.Unmarshal(body, &recs); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("no paired users")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("%s\t%s\t%s\t%s\n", r.Platform, r.UserID, r.Display,
				r.ApprovedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var pairApproveCmd = &cobra.Command{
	Use:   "approve CODE",
	Short: "Approve a pairing code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := json.Marshal(map[string]string{
			"code":        args[0],
			"approved_by": "cli",
		})
		body, err := adminRequest(http.MethodPost, "/pairings/approve", payload)
		if err != nil {
			return err
		}
		var rec struct {
			Platform string `json:"platform"`
			UserID   string `json:"user_id"`
		}
		if err := json.Unmarshal(body, &rec); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		fmt.Printf("paired %s user %s\n", rec.Platform, rec.UserID)
		return nil
	},
}

var pairRevokeCmd = &cobra.Command{
	Use:   "revoke PLATFORM USER_ID",
	Short: "Revoke an approved user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/pairings/%s/%s", args[0], args[1])
		if _, err := adminRequest(http.MethodDelete, path, nil); err != nil {
			return err
		}
		fmt.Printf("revoked %s user %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	pairCmd.PersistentFlags().StringVar(&pairAddr, "addr", "", "admin API address (default from config)")
	pairCmd.AddCommand(pairListCmd)
	pairCmd.AddCommand(pairApproveCmd)
	pairCmd.AddCommand(pairRevokeCmd)
}

func adminBase() (string, error) {
	if pairAddr != "" {
		return "http://" + pairAddr, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Admin.Addr, nil
}

func adminRequest(method, path string, payload []byte) ([]byte, error) {
	base, err := adminBase()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, base+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s", apiErr.Error)
		}
		return nil, fmt.Errorf("admin API returned %d", resp.StatusCode)
	}
	return body, nil
}
