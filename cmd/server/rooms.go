package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dkeye/Meet/internal/core"
)

func newRoomsCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "rooms [code]",
		Short: "List live rooms on a running server, or the members of one room",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var detail core.RoomDetail
				if err := getJSON(cmd.Context(), addr+"/api/rooms/"+url.PathEscape(args[0]), &detail); err != nil {
					return err
				}
				renderMembers(os.Stdout, detail)
				return nil
			}
			var rooms []core.RoomInfo
			if err := getJSON(cmd.Context(), addr+"/api/rooms", &rooms); err != nil {
				return err
			}
			renderRooms(os.Stdout, rooms)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "server base URL")
	return cmd
}

func getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %s", u, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func renderRooms(w io.Writer, rooms []core.RoomInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Code", "Kind", "Members", "Capacity"})
	total := 0
	for _, r := range rooms {
		t.AppendRow(table.Row{r.Code, r.Kind, r.MemberCount, capacityLabel(r.Capacity)})
		total += r.MemberCount
	}
	t.AppendFooter(table.Row{"", "Total", total, ""})
	t.Render()
}

func renderMembers(w io.Writer, detail core.RoomDetail) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (%s) %d/%s", detail.Code, detail.Kind, detail.MemberCount, capacityLabel(detail.Capacity)))
	t.AppendHeader(table.Row{"#", "Connection", "User", "Name"})
	for i, m := range detail.Members {
		t.AppendRow(table.Row{i + 1, m.SID, m.UserID, m.DisplayName})
	}
	t.Render()
}

func capacityLabel(capacity int) string {
	if capacity <= 0 {
		return "-"
	}
	return fmt.Sprint(capacity)
}
