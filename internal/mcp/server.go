package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/modkeep/modkeep/internal/config"
	"github.com/modkeep/modkeep/internal/database"
	"github.com/modkeep/modkeep/internal/engine"
	"github.com/modkeep/modkeep/internal/filesystem"
	"github.com/modkeep/modkeep/internal/history"
	"github.com/modkeep/modkeep/internal/loadorder"
	"github.com/modkeep/modkeep/internal/mods"
	"github.com/modkeep/modkeep/internal/registry"
)

// Server exposes the mod engine over MCP stdio so assistants can drive
// the manager.
type Server struct {
	server   *mcp.Server
	dbCtx    *database.Context
	registry *registry.Service
	engine   *engine.Engine
}

// NewServer wires the full engine stack and registers the mod tools.
func NewServer(log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	gameDir, err := config.GetGameDir()
	if err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}

	reg := registry.NewService(dbCtx)
	store := filesystem.NewStore(gameDir)
	order, err := loadorder.NewController(loadorder.NewFile(config.PluginsTxtPath(gameDir)), nil)
	if err != nil {
		database.CloseDatabase(dbCtx)
		return nil, fmt.Errorf("failed to load plugins.txt: %w", err)
	}

	special := map[mods.Category][]string{}
	for _, category := range mods.All() {
		special[category] = config.SpecialSubfolders(category)
	}
	eng := engine.New(reg, store, order, engine.NewResolver(store, special), engine.Options{
		Store:  history.NewStore(dbCtx),
		Logger: log,
	})
	if err := eng.LoadHistory(context.Background()); err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "modkeep",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server:   mcpServer,
		dbCtx:    dbCtx,
		registry: reg,
		engine:   eng,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	defer database.CloseDatabase(s.dbCtx)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_list",
		Description: "List managed mod entries in a category",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_enable",
		Description: "Enable one or more mod entries",
	}, s.handleEnable)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_disable",
		Description: "Disable one or more mod entries",
	}, s.handleDisable)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_rename",
		Description: "Set or clear a mod entry's display name",
	}, s.handleRename)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_group",
		Description: "Move a mod entry to a group (empty to ungroup)",
	}, s.handleGroup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_reorder",
		Description: "Move an enabled plugin to a new load-order position",
	}, s.handleReorder)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_undo",
		Description: "Undo the most recent mod action",
	}, s.handleUndo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mod_redo",
		Description: "Redo the most recently undone mod action",
	}, s.handleRedo)
}

// Input/Output types for each tool

type ListInput struct {
	Category string `json:"category" jsonschema:"required,enum=plugin;pak;script;loader,description=Entry category to list"`
}

type ListOutput struct {
	Entries []ListEntry `json:"entries"`
}

type ListEntry struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Group      string `json:"group,omitempty"`
	Enabled    bool   `json:"enabled"`
	Location   string `json:"location,omitempty"`
	OrderIndex *int64 `json:"orderIndex,omitempty"`
	Protected  bool   `json:"protected,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

type ToggleInput struct {
	Category         string   `json:"category" jsonschema:"required,enum=plugin;pak;script;loader,description=Entry category"`
	Keys             []string `json:"keys" jsonschema:"required,description=Entry keys (file names) to toggle"`
	PreservePosition *bool    `json:"preservePosition,omitempty" jsonschema:"description=Keep load-order slots across the toggle (default true)"`
}

type ToggleOutput struct {
	Message string `json:"message"`
}

type RenameInput struct {
	Category string `json:"category" jsonschema:"required,enum=plugin;pak;script;loader,description=Entry category"`
	Key      string `json:"key" jsonschema:"required,description=Entry key (file name)"`
	Name     string `json:"name" jsonschema:"description=New display name; empty clears it"`
}

type RenameOutput struct {
	Message string `json:"message"`
}

type GroupInput struct {
	Category string `json:"category" jsonschema:"required,enum=plugin;pak;script;loader,description=Entry category"`
	Key      string `json:"key" jsonschema:"required,description=Entry key (file name)"`
	Group    string `json:"group" jsonschema:"description=Slash-separated group path; empty ungroups"`
}

type GroupOutput struct {
	Message string `json:"message"`
}

type ReorderInput struct {
	Key      string `json:"key" jsonschema:"required,description=Plugin file name"`
	NewIndex int    `json:"newIndex" jsonschema:"required,description=Target position (0-based)"`
}

type ReorderOutput struct {
	Message string `json:"message"`
}

type UndoInput struct{}

type UndoOutput struct {
	Message string `json:"message"`
}

type RedoInput struct{}

type RedoOutput struct {
	Message string `json:"message"`
}

func parseCategory(raw string) (mods.Category, error) {
	category := mods.Category(raw)
	if !category.Valid() {
		return "", fmt.Errorf("unknown category: %s", raw)
	}
	return category, nil
}

// Tool handlers

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	category, err := parseCategory(input.Category)
	if err != nil {
		return nil, ListOutput{}, err
	}

	entries, err := s.registry.List(ctx, category)
	if err != nil {
		return nil, ListOutput{}, fmt.Errorf("failed to list entries: %w", err)
	}

	out := make([]ListEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ListEntry{
			Key:        e.Key,
			Name:       e.Name(),
			Group:      e.Group(),
			Enabled:    e.Enabled,
			Location:   e.Location,
			OrderIndex: e.OrderIndex,
			Protected:  e.Protected,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}

	return nil, ListOutput{Entries: out}, nil
}

func (s *Server) toggle(ctx context.Context, input ToggleInput, enable bool) (ToggleOutput, error) {
	category, err := parseCategory(input.Category)
	if err != nil {
		return ToggleOutput{}, err
	}
	if len(input.Keys) == 0 {
		return ToggleOutput{}, fmt.Errorf("no keys given")
	}

	preserve := true
	if input.PreservePosition != nil {
		preserve = *input.PreservePosition
	}

	verb := "Disabled"
	if enable {
		verb = "Enabled"
	}

	if len(input.Keys) == 1 {
		if err := s.engine.Toggle(ctx, category, input.Keys[0], enable, preserve); err != nil {
			return ToggleOutput{}, err
		}
		return ToggleOutput{Message: fmt.Sprintf("%s %s", verb, input.Keys[0])}, nil
	}

	if err := s.engine.BulkToggle(ctx, category, input.Keys, enable, preserve); err != nil {
		return ToggleOutput{}, err
	}
	return ToggleOutput{Message: fmt.Sprintf("%s %d entries", verb, len(input.Keys))}, nil
}

func (s *Server) handleEnable(ctx context.Context, req *mcp.CallToolRequest, input ToggleInput) (*mcp.CallToolResult, ToggleOutput, error) {
	out, err := s.toggle(ctx, input, true)
	return nil, out, err
}

func (s *Server) handleDisable(ctx context.Context, req *mcp.CallToolRequest, input ToggleInput) (*mcp.CallToolResult, ToggleOutput, error) {
	out, err := s.toggle(ctx, input, false)
	return nil, out, err
}

func (s *Server) handleRename(ctx context.Context, req *mcp.CallToolRequest, input RenameInput) (*mcp.CallToolResult, RenameOutput, error) {
	category, err := parseCategory(input.Category)
	if err != nil {
		return nil, RenameOutput{}, err
	}

	if err := s.engine.Rename(ctx, category, input.Key, input.Name); err != nil {
		return nil, RenameOutput{}, err
	}

	if input.Name == "" {
		return nil, RenameOutput{Message: fmt.Sprintf("Cleared name of %s", input.Key)}, nil
	}
	return nil, RenameOutput{Message: fmt.Sprintf("Renamed %s to %q", input.Key, input.Name)}, nil
}

func (s *Server) handleGroup(ctx context.Context, req *mcp.CallToolRequest, input GroupInput) (*mcp.CallToolResult, GroupOutput, error) {
	category, err := parseCategory(input.Category)
	if err != nil {
		return nil, GroupOutput{}, err
	}

	groupPath := mods.SplitGroup(input.Group)
	if err := s.engine.SetGroup(ctx, category, input.Key, groupPath); err != nil {
		return nil, GroupOutput{}, err
	}

	if len(groupPath) == 0 {
		return nil, GroupOutput{Message: fmt.Sprintf("Ungrouped %s", input.Key)}, nil
	}
	return nil, GroupOutput{Message: fmt.Sprintf("Moved %s to group %s", input.Key, input.Group)}, nil
}

func (s *Server) handleReorder(ctx context.Context, req *mcp.CallToolRequest, input ReorderInput) (*mcp.CallToolResult, ReorderOutput, error) {
	if err := s.engine.Reorder(ctx, mods.CategoryPlugin, input.Key, input.NewIndex); err != nil {
		return nil, ReorderOutput{}, err
	}
	return nil, ReorderOutput{Message: fmt.Sprintf("Moved %s to position %d", input.Key, input.NewIndex)}, nil
}

func (s *Server) handleUndo(ctx context.Context, req *mcp.CallToolRequest, input UndoInput) (*mcp.CallToolResult, UndoOutput, error) {
	desc, err := s.engine.Undo(ctx)
	if err != nil {
		return nil, UndoOutput{}, err
	}
	return nil, UndoOutput{Message: fmt.Sprintf("Undid: %s", desc)}, nil
}

func (s *Server) handleRedo(ctx context.Context, req *mcp.CallToolRequest, input RedoInput) (*mcp.CallToolResult, RedoOutput, error) {
	desc, err := s.engine.Redo(ctx)
	if err != nil {
		return nil, RedoOutput{}, err
	}
	return nil, RedoOutput{Message: fmt.Sprintf("Redid: %s", desc)}, nil
}
