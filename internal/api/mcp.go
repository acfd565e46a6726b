package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/gitprofile/internal/profile"
	"github.com/kalambet/gitprofile/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Profiles *profile.Manager
	Version  string
}

// NewMCPServer creates an MCP server with the profile tools and the
// current identity resource registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"gitprofile",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("gitprofile stores Git identities and switches the global user.name and user.email between them."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_profiles",
			mcp.WithDescription("List stored Git identity profiles and the email git currently uses."),
		),
		mcpListProfiles(deps),
	)

	s.AddTool(
		mcp.NewTool("add_profile",
			mcp.WithDescription("Store a new Git identity profile."),
			mcp.WithString("name", mcp.Description("Value for user.name"), mcp.Required()),
			mcp.WithString("email", mcp.Description("Value for user.email; must be unique"), mcp.Required()),
			mcp.WithString("alias", mcp.Description("Optional short name used to select the profile")),
		),
		mcpAddProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("switch_profile",
			mcp.WithDescription("Make the first profile whose alias contains the given alias, or whose email equals the given email, the global git identity."),
			mcp.WithString("alias", mcp.Description("Substring of the profile alias")),
			mcp.WithString("email", mcp.Description("Exact profile email")),
		),
		mcpSwitchProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"identity://current",
			"Current Git Identity",
			mcp.WithResourceDescription("Global user.name and user.email as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceIdentity(deps),
	)

	return s
}

func mcpListProfiles(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		listing, err := deps.Profiles.List(ctx)
		if err != nil {
			if !errors.Is(err, profile.ErrIdentityUnavailable) {
				return mcpError(fmt.Sprintf("list failed: %v", err)), nil
			}
			slog.Warn("listing without current identity", "error", err)
		}

		resp := listResponse{
			Profiles:     make([]profileJSON, len(listing.Profiles)),
			CurrentEmail: listing.CurrentEmail,
		}
		for i, p := range listing.Profiles {
			resp.Profiles[i] = toProfileJSON(p)
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profiles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAddProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		email, err := req.RequireString("email")
		if err != nil {
			return mcpError("email is required"), nil
		}
		alias := req.GetString("alias", "")

		p, err := deps.Profiles.Add(ctx, name, email, alias)
		if err != nil {
			var dup *storage.DuplicateError
			if errors.As(err, &dup) {
				return mcpError(dup.Error()), nil
			}
			return mcpError(fmt.Sprintf("failed to add profile: %v", err)), nil
		}

		return mcpText("Added profile " + p.Label()), nil
	}
}

func mcpSwitchProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sel := profile.Selector{
			Alias: req.GetString("alias", ""),
			Email: req.GetString("email", ""),
		}

		p, err := deps.Profiles.Switch(ctx, sel)
		if errors.Is(err, profile.ErrNoMatch) {
			return mcpError(fmt.Sprintf("no profile matches alias %q or email %q", sel.Alias, sel.Email)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("switch failed: %v", err)), nil
		}

		return mcpText("Switched profile to " + p.Label()), nil
	}
}

func mcpResourceIdentity(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id, err := deps.Profiles.Current(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read identity: %w", err)
		}

		b, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal identity: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
