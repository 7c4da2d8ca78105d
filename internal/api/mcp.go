package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/tutor/internal/learning"
	"github.com/kalambet/tutor/internal/session"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Sessions *session.Store // optional; if nil, explain_profile only accepts a profile argument
	Version  string
}

// NewMCPServer creates an MCP server exposing the learning engine as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"tutor",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("tutor: infers a learner profile from chat messages and adapts replies to it."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Fold a learner message into a learning profile and return the updated profile as JSON."),
			mcp.WithString("message", mcp.Description("The learner's chat message"), mcp.Required()),
			mcp.WithString("profile", mcp.Description("Current profile as JSON; omitted means a fresh profile")),
		),
		mcpUpdateProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("adapt_response",
			mcp.WithDescription("Rewrite a model reply for a learning profile. Returns {content, adaptations_applied}."),
			mcp.WithString("text", mcp.Description("The model reply to adapt"), mcp.Required()),
			mcp.WithString("profile", mcp.Description("Profile as JSON; omitted means a fresh profile")),
		),
		mcpAdaptResponse(deps),
	)

	s.AddTool(
		mcp.NewTool("is_meta_question",
			mcp.WithDescription("Report whether a message asks how the tutor personalizes itself."),
			mcp.WithString("message", mcp.Description("The learner's chat message"), mcp.Required()),
		),
		mcpIsMetaQuestion(deps),
	)

	s.AddTool(
		mcp.NewTool("explain_profile",
			mcp.WithDescription("Explain, in markdown, how the tutor is adapting to a learner."),
			mcp.WithString("session_id", mcp.Description("Live session whose profile to explain")),
			mcp.WithString("profile", mcp.Description("Profile as JSON, used when session_id is not given")),
		),
		mcpExplainProfile(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"tutor://taxonomy",
			"Keyword Taxonomy",
			mcp.WithResourceDescription("Subject and learning-style keyword lists used for profile inference"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTaxonomy(deps),
	)

	return s
}

// profileArg parses the optional "profile" argument.
func profileArg(req mcp.CallToolRequest) (learning.Profile, error) {
	raw := req.GetString("profile", "")
	if raw == "" {
		return learning.NewProfile(), nil
	}
	return learning.ParseProfile([]byte(raw))
}

func mcpUpdateProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		p, err := profileArg(req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		b, err := json.Marshal(learning.Update(message, p))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAdaptResponse(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		p, err := profileArg(req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		b, err := json.Marshal(learning.Adapt(text, p))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpIsMetaQuestion(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		if learning.IsMetaQuestion(message) {
			return mcpText("true"), nil
		}
		return mcpText("false"), nil
	}
}

func mcpExplainProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if id := req.GetString("session_id", ""); id != "" {
			if deps.Sessions == nil {
				return mcpError("sessions are not available on this server"), nil
			}
			s, err := deps.Sessions.Get(id)
			if errors.Is(err, session.ErrNotFound) {
				return mcpError(fmt.Sprintf("session %s not found", id)), nil
			}
			if err != nil {
				return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
			}
			return mcpText(learning.RenderMetaAnswer(s.Profile())), nil
		}

		p, err := profileArg(req)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(learning.RenderMetaAnswer(p)), nil
	}
}

type taxonomy struct {
	Subjects       map[learning.Subject][]string       `json:"subjects"`
	LearningStyles map[learning.LearningStyle][]string `json:"learning_styles"`
}

func mcpResourceTaxonomy(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tx := taxonomy{
			Subjects:       make(map[learning.Subject][]string, len(learning.Subjects)),
			LearningStyles: make(map[learning.LearningStyle][]string, len(learning.LearningStyles)),
		}
		for _, s := range learning.Subjects {
			tx.Subjects[s] = learning.SubjectKeywords(s)
		}
		for _, s := range learning.LearningStyles {
			tx.LearningStyles[s] = learning.StyleKeywords(s)
		}

		b, err := json.Marshal(tx)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal taxonomy: %w", err)
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
