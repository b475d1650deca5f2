package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/virel-protocol/virel-go/pkg/log"
)

// buildFilter translates string flags into a log.Filter.
func buildFilter(layer, direction, category, domain, connID string, epoch uint64, hasEpoch bool) (log.Filter, error) {
	filter := log.Filter{
		Domain:       domain,
		ConnectionID: connID,
	}

	if layer != "" {
		l, err := parseLayer(layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if direction != "" {
		d, err := parseDirection(direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if hasEpoch {
		filter.Epoch = &epoch
	}

	return filter, nil
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "gate":
		return log.LayerGate, nil
	default:
		return 0, fmt.Errorf("unknown layer %q (transport, wire, gate)", s)
	}
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (in, out)", s)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "vote":
		return log.CategoryVote, nil
	default:
		return 0, fmt.Errorf("unknown category %q (message, control, state, error, vote)", s)
	}
}

// view prints matching events one per line.
func view(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading event %d: %w", count+1, err)
		}

		fmt.Fprintln(w, formatEvent(event))
		count++
	}

	fmt.Fprintf(w, "\n%d events\n", count)
	return nil
}

// formatEvent renders one event as a single line.
func formatEvent(event log.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %-9s %-7s",
		event.Timestamp.Format("15:04:05.000000"),
		event.Layer, event.Category)

	if event.Epoch != 0 || event.Lamport != 0 {
		fmt.Fprintf(&b, " %d.%d", event.Epoch, event.Lamport)
	}
	if event.Domain != "" {
		fmt.Fprintf(&b, " domain=%s", event.Domain)
	}
	if event.ConnectionID != "" {
		fmt.Fprintf(&b, " conn=%.8s", event.ConnectionID)
	}

	switch {
	case event.Vote != nil:
		fmt.Fprintf(&b, " %s vote=%s vote_epoch=%d accepted=%t",
			event.Direction, event.Vote.Token, event.Vote.VoteEpoch, event.Vote.Accepted)
		if event.Vote.Reason != "" {
			fmt.Fprintf(&b, " reason=%q", event.Vote.Reason)
		}

	case event.StateChange != nil:
		fmt.Fprintf(&b, " %s: %s -> %s",
			event.StateChange.Entity, event.StateChange.OldState, event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", event.StateChange.Reason)
		}

	case event.Frame != nil:
		fmt.Fprintf(&b, " %s %d bytes", event.Direction, event.Frame.Size)
		if len(event.Frame.Data) > 0 {
			data := event.Frame.Data
			if len(data) > 16 {
				data = data[:16]
			}
			fmt.Fprintf(&b, " %s", hex.EncodeToString(data))
			if event.Frame.Truncated || len(event.Frame.Data) > 16 {
				b.WriteString("...")
			}
		}

	case event.ControlMsg != nil:
		fmt.Fprintf(&b, " %s %s", event.Direction, event.ControlMsg.Type)

	case event.Error != nil:
		fmt.Fprintf(&b, " [%s] %s", event.Error.Layer, event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(&b, " (%s)", event.Error.Context)
		}
	}

	return b.String()
}

// stats prints aggregate counts for the audit log.
func stats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	var (
		total      int
		byLayer    = make(map[string]int)
		byCategory = make(map[string]int)
		byDomain   = make(map[string]int)
		votes      int
		accepted   int
		modes      int
		maxEpoch   uint64
	)

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading event %d: %w", total+1, err)
		}

		total++
		byLayer[event.Layer.String()]++
		byCategory[event.Category.String()]++
		if event.Domain != "" {
			byDomain[event.Domain]++
		}
		if event.Epoch > maxEpoch {
			maxEpoch = event.Epoch
		}
		if event.Vote != nil {
			votes++
			if event.Vote.Accepted {
				accepted++
			}
		}
		if event.StateChange != nil && event.StateChange.Entity == log.StateEntityMode {
			modes++
		}
	}

	fmt.Fprintf(w, "Total events:  %d\n", total)
	fmt.Fprintf(w, "Highest epoch: %d\n", maxEpoch)
	fmt.Fprintf(w, "Votes:         %d (%d accepted, %d dropped)\n", votes, accepted, votes-accepted)
	fmt.Fprintf(w, "Mode changes:  %d\n", modes)

	printCounts(w, "By layer:", byLayer)
	printCounts(w, "By category:", byCategory)
	if len(byDomain) > 0 {
		printCounts(w, "By domain:", byDomain)
	}
	return nil
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	fmt.Fprintf(w, "\n%s\n", title)

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "  %-12s %d\n", k, counts[k])
	}
}
