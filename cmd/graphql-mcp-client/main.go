// Command graphql-mcp-client is a small streamable-HTTP test client: it
// performs the initialize handshake, then lists tools or calls one.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	toolschema "github.com/gqlmcp/graphql-mcp/schema"
	"github.com/gqlmcp/graphql-mcp/toolset"
)

type Options struct {
	URL    string `short:"u" long:"url" env:"GRAPHQL_MCP_URL" default:"http://127.0.0.1:4981/mcp" description:"streamable endpoint URL"`
	APIKey string `long:"api-key" env:"MCP_API_KEY" description:"shared secret, when the server requires one"`

	Tool      string `short:"t" long:"tool" description:"tool to call; omit to list tools"`
	Question  string `short:"q" long:"question" description:"search-schema question"`
	K         *int   `short:"k" long:"k" description:"search-schema result count"`
	Query     string `long:"query" description:"query-graphql document"`
	Variables string `long:"variables" description:"query-graphql variables JSON"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c := &client{options: options, httpClient: &http.Client{Timeout: 30 * time.Second}}
	var initResult schema.InitializeResult
	if err := c.call(ctx, schema.MethodInitialize, &schema.InitializeRequestParams{
		Capabilities:    schema.ClientCapabilities{},
		ClientInfo:      schema.Implementation{Name: "graphql-mcp-client", Version: "0.1.0"},
		ProtocolVersion: schema.LatestProtocolVersion,
	}, &initResult); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Printf("connected to %s %s (session %s)\n", initResult.ServerInfo.Name, initResult.ServerInfo.Version, c.sessionID)

	if options.Tool == "" {
		var listResult schema.ListToolsResult
		if err := c.call(ctx, schema.MethodToolsList, map[string]interface{}{}, &listResult); err != nil {
			return fmt.Errorf("tools/list: %w", err)
		}
		for _, tool := range listResult.Tools {
			description := ""
			if tool.Description != nil {
				description = *tool.Description
			}
			fmt.Printf("%s\t%s\n", tool.Name, description)
		}
		return nil
	}

	params, err := callParams(options)
	if err != nil {
		return err
	}
	var callResult struct {
		IsError *bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := c.call(ctx, schema.MethodToolsCall, params, &callResult); err != nil {
		return fmt.Errorf("tools/call: %w", err)
	}
	if callResult.IsError != nil && *callResult.IsError {
		fmt.Fprintln(os.Stderr, "tool reported an error:")
	}
	for _, item := range callResult.Content {
		fmt.Println(item.Text)
	}
	return nil
}

func callParams(options *Options) (*schema.CallToolRequestParams, error) {
	switch options.Tool {
	case toolset.SearchSchemaTool:
		return toolschema.NewCallToolRequestParams(options.Tool, &toolset.SearchSchemaArgs{
			Question: options.Question,
			K:        options.K,
		})
	case toolset.QueryGraphQLTool:
		args := &toolset.QueryGraphQLArgs{Query: options.Query}
		if options.Variables != "" {
			args.Variables = &options.Variables
		}
		return toolschema.NewCallToolRequestParams(options.Tool, args)
	default:
		return nil, fmt.Errorf("unknown tool: %v", options.Tool)
	}
}

type client struct {
	options    *Options
	httpClient *http.Client
	sessionID  string
	nextID     int
}

// call posts one request frame and decodes the response result into out.
func (c *client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	c.nextID++
	envelope := map[string]interface{}{
		"jsonrpc": jsonrpc.Version,
		"id":      c.nextID,
		"method":  method,
	}
	if params != nil {
		envelope["params"] = params
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.options.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		request.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	if c.options.APIKey != "" {
		request.Header.Set("X-API-Key", c.options.APIKey)
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if id := response.Header.Get("Mcp-Session-Id"); id != "" {
		c.sessionID = id
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", response.Status, data)
	}
	var frame struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonrpc.Error  `json:"error"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if frame.Error != nil {
		return frame.Error
	}
	if out == nil || len(frame.Result) == 0 {
		return nil
	}
	return json.Unmarshal(frame.Result, out)
}
