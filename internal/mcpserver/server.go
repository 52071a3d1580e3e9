// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the asset record commands as tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/assetservice"
	"github.com/starford/othala/internal/models"
)

// Server wraps the MCP server with the Othala command tools.
type Server struct {
	mcp *server.MCPServer
	svc *assetservice.Service
}

// New creates a new MCP server with all asset tools registered.
func New(svc *assetservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List all tracked household assets."),
	), s.listAssets)

	s.mcp.AddTool(mcp.NewTool("create_asset",
		mcp.WithDescription("Create a new asset record. Only name is required. "+
			"Dates use ISO format (2024-01-31 or RFC 3339). Read the record "+
			"contract first via the othala://asset-record resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Asset name (non-empty)")),
		mcp.WithString("brand", mcp.Description("Brand or manufacturer")),
		mcp.WithString("category", mcp.Description("Free-form category")),
		mcp.WithNumber("value", mcp.Description("Purchase/replacement value")),
		mcp.WithString("purchase_at", mcp.Description("Purchase date (ISO)")),
		mcp.WithString("warranty_until", mcp.Description("Warranty end date (ISO)")),
		mcp.WithString("manual_md", mcp.Description("Manual notes (Markdown)")),
		mcp.WithString("maintenance_md", mcp.Description("Maintenance log (Markdown)")),
	), s.createAsset)

	s.mcp.AddTool(mcp.NewTool("update_asset",
		mcp.WithDescription("Update fields of an existing asset record. Only the "+
			"provided fields change. Pass an empty string for a date to clear it."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id (asset_<hex>)")),
		mcp.WithString("name", mcp.Description("New name (non-empty)")),
		mcp.WithString("brand", mcp.Description("New brand")),
		mcp.WithString("category", mcp.Description("New category")),
		mcp.WithNumber("value", mcp.Description("New value")),
		mcp.WithString("purchase_at", mcp.Description("New purchase date (ISO), empty clears")),
		mcp.WithString("warranty_until", mcp.Description("New warranty end date (ISO), empty clears")),
		mcp.WithString("manual_md", mcp.Description("New manual notes")),
		mcp.WithString("maintenance_md", mcp.Description("New maintenance log")),
	), s.updateAsset)

	s.mcp.AddTool(mcp.NewTool("delete_asset",
		mcp.WithDescription("Delete an asset record and its derived entities."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id (asset_<hex>)")),
	), s.deleteAsset)

	// Resource: asset record contract.
	s.mcp.AddResource(
		mcp.NewResource("othala://asset-record", "Asset Record Contract",
			mcp.WithResourceDescription("Field reference for Othala asset records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assets := s.svc.List(ctx)
	out, _ := json.MarshalIndent(map[string][]models.Asset{"assets": assets}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := models.AssetInput{Name: name}
	if v, vErr := req.RequireString("brand"); vErr == nil {
		in.Brand = v
	}
	if v, vErr := req.RequireString("category"); vErr == nil {
		in.Category = v
	}
	if v, vErr := req.RequireFloat("value"); vErr == nil {
		raw, _ := json.Marshal(v)
		in.Value = raw
	}
	if v, vErr := req.RequireString("purchase_at"); vErr == nil && v != "" {
		in.PurchaseAt = &v
	}
	if v, vErr := req.RequireString("warranty_until"); vErr == nil && v != "" {
		in.WarrantyUntil = &v
	}
	if v, vErr := req.RequireString("manual_md"); vErr == nil {
		in.ManualMD = v
	}
	if v, vErr := req.RequireString("maintenance_md"); vErr == nil {
		in.MaintenanceMD = v
	}

	asset, err := s.svc.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(asset, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) updateAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetID, err := req.RequireString("asset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var in assetservice.UpdateInput
	if v, vErr := req.RequireString("name"); vErr == nil {
		in.Name = &v
	}
	if v, vErr := req.RequireString("brand"); vErr == nil {
		in.Brand = &v
	}
	if v, vErr := req.RequireString("category"); vErr == nil {
		in.Category = &v
	}
	if v, vErr := req.RequireFloat("value"); vErr == nil {
		raw, _ := json.Marshal(v)
		rm := json.RawMessage(raw)
		in.Value = &rm
	}
	if v, vErr := req.RequireString("purchase_at"); vErr == nil {
		in.PurchaseAt = dateArg(v)
	}
	if v, vErr := req.RequireString("warranty_until"); vErr == nil {
		in.WarrantyUntil = dateArg(v)
	}
	if v, vErr := req.RequireString("manual_md"); vErr == nil {
		in.ManualMD = &v
	}
	if v, vErr := req.RequireString("maintenance_md"); vErr == nil {
		in.MaintenanceMD = &v
	}

	asset, err := s.svc.Update(ctx, assetID, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(asset, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetID, err := req.RequireString("asset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, assetID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", assetID)), nil
}

func (s *Server) readRecordContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://asset-record",
			MIMEType: "text/markdown",
			Text:     RecordContract,
		},
	}, nil
}

// dateArg maps a tool date argument onto the service's date field semantics:
// an empty string clears the date.
func dateArg(v string) *assetservice.DateInput {
	if v == "" {
		return &assetservice.DateInput{}
	}
	return &assetservice.DateInput{Value: &v}
}
