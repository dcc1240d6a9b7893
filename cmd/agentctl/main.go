// agentctl is a small operator tool for the agent service: inspect agents
// and trigger reconciliation repairs by transaction id.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "get":
		runGet(os.Args[2:])
	case "repair-agent":
		runRepairAgent(os.Args[2:])
	case "repair-mint":
		runRepairMint(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  agentctl get --agent-id <id>
  agentctl repair-agent --agent-id <id> --name <n> --symbol <s> --uri <u> --tx-id <sig> [--decimals <d>]
  agentctl repair-mint --agent-id <id> --tx-id <sig> --amount-base <n> --recipient <addr>

The service base URL comes from AGENT_API_URL (default http://localhost:3000).`)
}

func baseURL() string {
	if v := os.Getenv("AGENT_API_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	agentID := fs.String("agent-id", "", "agent id")
	_ = fs.Parse(args)
	if *agentID == "" {
		usage()
		os.Exit(2)
	}
	do(http.MethodGet, "/agents/"+*agentID, nil)
}

func runRepairAgent(args []string) {
	fs := flag.NewFlagSet("repair-agent", flag.ExitOnError)
	agentID := fs.String("agent-id", "", "agent id")
	name := fs.String("name", "", "agent name")
	symbol := fs.String("symbol", "", "token symbol")
	uri := fs.String("uri", "", "metadata uri")
	txID := fs.String("tx-id", "", "creation transaction signature")
	decimals := fs.Int("decimals", -1, "token decimals (omit for default)")
	_ = fs.Parse(args)
	if *agentID == "" || *name == "" || *symbol == "" || *uri == "" || *txID == "" {
		usage()
		os.Exit(2)
	}
	body := map[string]any{
		"agentId": *agentID, "name": *name, "symbol": *symbol, "uri": *uri, "txId": *txID,
	}
	if *decimals >= 0 {
		body["decimals"] = *decimals
	}
	do(http.MethodPost, "/admin/repairs/agents", body)
}

func runRepairMint(args []string) {
	fs := flag.NewFlagSet("repair-mint", flag.ExitOnError)
	agentID := fs.String("agent-id", "", "agent id")
	txID := fs.String("tx-id", "", "mint transaction signature")
	amountBase := fs.Uint64("amount-base", 0, "minted amount in base units")
	recipient := fs.String("recipient", "", "recipient address")
	_ = fs.Parse(args)
	if *agentID == "" || *txID == "" || *amountBase == 0 || *recipient == "" {
		usage()
		os.Exit(2)
	}
	do(http.MethodPost, "/admin/repairs/mints", map[string]any{
		"agentId": *agentID, "txId": *txID, "amountBase": *amountBase, "recipient": *recipient,
	})
}

func do(method, path string, body any) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	req, err := http.NewRequest(method, baseURL()+path, &buf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req.Header.Set("content-type", "application/json")
	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Println(string(out))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}
