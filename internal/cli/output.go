package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/mcoot/matchmaker/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.JoinResponse:
		o.printJoin(v)
	case response.ListLobbiesResponse:
		o.printList(v)
	case response.Health:
		fmt.Printf("Status: %s\n", v.Status)
	case TokenResult:
		fmt.Println(v.Token)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printJoin(r response.JoinResponse) {
	fmt.Printf("Lobby: %s\n", r.Lobby.LobbyID)
	fmt.Printf("Region: %s (%s)\n", r.Lobby.Region.DisplayName, r.Lobby.Region.RegionID)

	labels := make([]string, 0, len(r.Ports))
	for label := range r.Ports {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Printf("Ports (%d):\n", len(labels))
	for _, label := range labels {
		p := r.Ports[label]
		tls := ""
		if p.IsTLS {
			tls = " [tls]"
		}
		switch {
		case p.Port != nil:
			fmt.Printf("  - %s: %s:%d%s\n", label, p.Hostname, *p.Port, tls)
		case p.PortRange != nil:
			fmt.Printf("  - %s: %s:%d-%d%s\n", label, p.Hostname, p.PortRange.Min, p.PortRange.Max, tls)
		default:
			fmt.Printf("  - %s: %s%s\n", label, p.Hostname, tls)
		}
	}
	fmt.Printf("Player Token: %s\n", r.Player.Token)
}

func (o *Output) printList(r response.ListLobbiesResponse) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "REGION\tPROVIDER\tDISTANCE (km)")
	for _, region := range r.Regions {
		fmt.Fprintf(w, "%s\t%s\t%.0f\n", region.RegionID, region.ProviderDisplayName, region.DatacenterDistanceFromClient.Kilometers)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "LOBBY\tGAME MODE\tREGION\tPLAYERS")
	for _, lobby := range r.Lobbies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\n", lobby.LobbyID, lobby.GameModeID, lobby.RegionID, lobby.TotalPlayerCount, lobby.MaxPlayersNormal)
	}
	_ = w.Flush()
}
