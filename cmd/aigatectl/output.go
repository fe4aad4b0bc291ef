package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"aigate/internal/domain"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printServers(servers []domain.ServerStatus, jsonOutput bool) error {
	if jsonOutput {
		if servers == nil {
			servers = []domain.ServerStatus{}
		}
		return writeJSON(map[string]any{"servers": servers})
	}
	fmt.Printf("servers=%d\n", len(servers))
	for _, s := range servers {
		line := fmt.Sprintf("%s\t%s\t%s\t%s", s.ID, s.Name, s.Status, s.URL)
		if s.LastError != "" {
			line += "\terror=" + s.LastError
		}
		fmt.Println(line)
	}
	return nil
}

func printAddedServer(result addServerResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(result)
	}
	fmt.Printf("added id=%s name=%s connected=%t\n", result.Server.ID, result.Server.Name, result.Connected)
	return nil
}

func printAction(action, id string, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"action": action, "id": id})
	}
	fmt.Printf("%s id=%s\n", action, id)
	return nil
}

func printReconnect(id string, connected bool, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"id": id, "connected": connected})
	}
	fmt.Printf("reconnect id=%s connected=%t\n", id, connected)
	return nil
}

func printTools(catalog domain.ToolCatalog, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(catalog)
	}
	fmt.Printf("fingerprint=%s tools=%d\n", catalog.Fingerprint, len(catalog.Tools))
	for _, tool := range catalog.Tools {
		fmt.Printf("%s\t%s\t%s\n", tool.ServerName, tool.Name, strings.TrimSpace(tool.Description))
	}
	return nil
}

func printResultPayload(label string, payload []byte, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{label: json.RawMessage(payload)})
	}
	fmt.Println(string(payload))
	return nil
}

func printRouteDecision(decision domain.RouteDecision, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(decision)
	}
	if !decision.Permitted {
		fmt.Println("not permitted")
		return nil
	}
	fmt.Printf("class=%s backend=%s\n", decision.Class, decision.Backend)
	return nil
}

func printCompletion(result domain.CompletionResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(result)
	}
	fmt.Printf("backend=%s class=%s attempted=%s\n", result.Backend, result.Class, strings.Join(result.Attempted, ","))
	fmt.Println(result.Content)
	return nil
}
