// Copyright 2026 cloudygreybeard
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mcp provides an MCP (Model Context Protocol) server for an XBEL
// bookmark file. It speaks line-delimited JSON-RPC 2.0 over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/manager"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

const (
	uriTree     = "xbel://tree"
	uriMarkdown = "xbel://markdown"
	uriToolbar  = "xbel://toolbar"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Server implements an MCP server for one bookmark manager.
type Server struct {
	mgr     *manager.Manager
	version string
	logger  zerolog.Logger
	in      io.Reader
	out     io.Writer

	// run executes document work. The manager's documents are not safe
	// for concurrent use, so a server sharing one with an event loop
	// passes the loop's Do.
	run func(ctx context.Context, f func()) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// WithExecutor runs every document access through run, for example
// (*manager.EventLoop).Do.
func WithExecutor(run func(ctx context.Context, f func()) error) Option {
	return func(s *Server) { s.run = run }
}

// WithVersion sets the version reported on initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new MCP server for m.
func NewServer(m *manager.Manager, opts ...Option) *Server {
	s := &Server{
		mgr:     m,
		version: "dev",
		logger:  zerolog.Nop(),
		in:      os.Stdin,
		out:     os.Stdout,
		run: func(_ context.Context, f func()) error {
			f()
			return nil
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run serves requests until the input ends or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	decoder := json.NewDecoder(s.in)
	encoder := json.NewEncoder(s.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var req Request
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// the decoder cannot resynchronise after a syntax error
			_ = encoder.Encode(errorResponse(nil, codeParseError, "Parse error"))
			return fmt.Errorf("decoding request: %w", err)
		}

		resp := s.handleRequest(ctx, &req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	s.logger.Debug().Str("method", req.Method).Msg("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return result(req.ID, map[string]interface{}{})
	case "resources/list":
		return s.handleResourcesList(req)
	case "resources/read":
		return s.handleResourcesRead(ctx, req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	}
	if req.ID == nil {
		// notifications get no answer
		return nil
	}
	return errorResponse(req.ID, codeMethodNotFound, "Method not found")
}

func (s *Server) handleInitialize(req *Request) *Response {
	return result(req.ID, map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]string{
			"name":    "xbel",
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"resources": map[string]bool{
				"subscribe":   false,
				"listChanged": false,
			},
			"tools": map[string]interface{}{},
		},
	})
}

func (s *Server) handleResourcesList(req *Request) *Response {
	resources := []Resource{
		{
			URI:         uriTree,
			Name:        "Bookmark Tree",
			Description: "The bookmark tree in JSON format",
			MimeType:    "application/json",
		},
		{
			URI:         uriMarkdown,
			Name:        "Bookmarks (Markdown)",
			Description: "The bookmark tree in Markdown format",
			MimeType:    "text/markdown",
		},
		{
			URI:         uriToolbar,
			Name:        "Toolbar",
			Description: "The toolbar folder in JSON format",
			MimeType:    "application/json",
		},
	}
	return result(req.ID, map[string]interface{}{"resources": resources})
}

func (s *Server) handleResourcesRead(ctx context.Context, req *Request) *Response {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params")
	}

	format, mimeType := "json", "application/json"
	switch params.URI {
	case uriTree, uriToolbar:
	case uriMarkdown:
		format, mimeType = "markdown", "text/markdown"
	default:
		return errorResponse(req.ID, codeInvalidParams, "Unknown resource: "+params.URI)
	}

	outAdapter, ok := adapter.GetOutput(format)
	if !ok {
		return errorResponse(req.ID, codeServerError, "Output adapter not found")
	}

	var (
		data      []byte
		renderErr error
	)
	err := s.run(ctx, func() {
		root := s.mgr.Root()
		if params.URI == uriToolbar {
			root = s.mgr.Toolbar()
		}
		data, renderErr = outAdapter.Render(root, output.DefaultRenderOptions())
	})
	if err == nil {
		err = renderErr
	}
	if err != nil {
		return errorResponse(req.ID, codeServerError, err.Error())
	}

	return result(req.ID, map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      params.URI,
				"mimeType": mimeType,
				"text":     string(data),
			},
		},
	})
}

func (s *Server) handleToolsList(req *Request) *Response {
	tools := []Tool{
		{
			Name:        "search_bookmarks",
			Description: "Search bookmarks by title or URL",
			InputSchema: objectSchema(map[string]string{
				"query": "Search query",
			}, "query"),
		},
		{
			Name:        "add_bookmark",
			Description: "Add a bookmark to a folder and save",
			InputSchema: objectSchema(map[string]string{
				"title":  "Bookmark title",
				"url":    "Bookmark URL",
				"folder": "Address of the folder, e.g. /2/0; empty for the top level",
			}, "title", "url"),
		},
		{
			Name:        "visit_bookmark",
			Description: "Record a visit to every bookmark of a URL",
			InputSchema: objectSchema(map[string]string{
				"url": "Visited URL",
			}, "url"),
		},
	}
	return result(req.ID, map[string]interface{}{"tools": tools})
}

func objectSchema(props map[string]string, required ...string) map[string]interface{} {
	properties := make(map[string]interface{}, len(props))
	for name, desc := range props {
		properties[name] = map[string]interface{}{
			"type":        "string",
			"description": desc,
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params")
	}

	switch params.Name {
	case "search_bookmarks":
		return s.toolSearchBookmarks(ctx, req, params.Arguments)
	case "add_bookmark":
		return s.toolAddBookmark(ctx, req, params.Arguments)
	case "visit_bookmark":
		return s.toolVisitBookmark(ctx, req, params.Arguments)
	default:
		return errorResponse(req.ID, codeInvalidParams, "Unknown tool")
	}
}

// SearchResult is one match of search_bookmarks.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Address string `json:"address"`
}

func (s *Server) toolSearchBookmarks(ctx context.Context, req *Request, args json.RawMessage) *Response {
	var searchArgs struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &searchArgs); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid search arguments")
	}

	var matches []SearchResult
	err := s.run(ctx, func() {
		matches = Search(s.mgr.Root(), searchArgs.Query)
	})
	if err != nil {
		return errorResponse(req.ID, codeServerError, err.Error())
	}

	resultJSON, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return errorResponse(req.ID, codeServerError, err.Error())
	}
	return textResult(req.ID, fmt.Sprintf("Found %d matches:\n%s", len(matches), resultJSON))
}

// Search returns the bookmarks under root whose title or URL contains
// query, ignoring case, in document order.
func Search(root bookmark.Group, query string) []SearchResult {
	q := strings.ToLower(query)
	matches := []SearchResult{}
	bookmark.Traverse(root, bookmark.TraverserFuncs{
		OnVisit: func(b bookmark.Bookmark) {
			if b.IsSeparator() {
				return
			}
			if !strings.Contains(strings.ToLower(b.FullText()), q) &&
				!strings.Contains(strings.ToLower(b.PrettyURL()), q) {
				return
			}
			addr, _ := b.Address()
			matches = append(matches, SearchResult{Title: b.FullText(), URL: b.URL(), Address: addr})
		},
	})
	return matches
}

func (s *Server) toolAddBookmark(ctx context.Context, req *Request, args json.RawMessage) *Response {
	var addArgs struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Folder string `json:"folder"`
	}
	if err := json.Unmarshal(args, &addArgs); err != nil || addArgs.URL == "" {
		return errorResponse(req.ID, codeInvalidParams, "Invalid add arguments")
	}

	var (
		address string
		toolErr error
	)
	err := s.run(ctx, func() {
		parent := s.mgr.Root()
		if addArgs.Folder != "" {
			g, ok := s.mgr.FindByAddress(addArgs.Folder).ToGroup()
			if !ok {
				toolErr = fmt.Errorf("no folder at %s", addArgs.Folder)
				return
			}
			parent = g
		}
		b := parent.AddNewBookmark(addArgs.Title, addArgs.URL, "")
		b.UpdateAccessMetadata()
		address, _ = b.Address()
		toolErr = s.mgr.EmitChanged(parent)
	})
	if err == nil {
		err = toolErr
	}
	if err != nil {
		return errorResponse(req.ID, codeServerError, err.Error())
	}
	return textResult(req.ID, "Added bookmark at "+address)
}

func (s *Server) toolVisitBookmark(ctx context.Context, req *Request, args json.RawMessage) *Response {
	var visitArgs struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &visitArgs); err != nil || visitArgs.URL == "" {
		return errorResponse(req.ID, codeInvalidParams, "Invalid visit arguments")
	}

	var (
		found   bool
		toolErr error
	)
	err := s.run(ctx, func() {
		found = s.mgr.UpdateAccessMetadata(visitArgs.URL)
		if found && !s.mgr.IsTemp() {
			toolErr = s.mgr.Save(true)
		}
	})
	if err == nil {
		err = toolErr
	}
	if err != nil {
		return errorResponse(req.ID, codeServerError, err.Error())
	}
	if !found {
		return textResult(req.ID, "No bookmark for "+visitArgs.URL)
	}
	return textResult(req.ID, "Recorded visit to "+visitArgs.URL)
}

func result(id interface{}, v interface{}) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  v,
	}
}

func textResult(id interface{}, text string) *Response {
	return result(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": text,
			},
		},
	})
}

func errorResponse(id interface{}, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
}

// MCP Protocol types

// Request represents a JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents a JSON-RPC error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}
