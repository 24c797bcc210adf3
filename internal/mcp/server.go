package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/nshaw/breakdown/internal/db"
	"github.com/nshaw/breakdown/internal/planner"
	"github.com/nshaw/breakdown/pkg/models"
)

// NewServer creates an MCP server exposing the planner over stdio, so
// agent clients can create and work through plans.
func NewServer(database *db.DB, svc *planner.Service) *server.MCPServer {
	s := server.NewMCPServer("Breakdown", "0.1.0")

	s.AddTool(mcp.NewTool("create_plan",
		mcp.WithDescription("Break a free-text goal into a task plan with dependencies, priorities and time estimates, and persist it."),
		mcp.WithString("goal", mcp.Description("The goal to break down"), mcp.Required()),
	), createPlanHandler(database, svc))

	s.AddTool(mcp.NewTool("list_plans",
		mcp.WithDescription("List all plans with progress counts."),
	), listPlansHandler(database))

	s.AddTool(mcp.NewTool("get_plan",
		mcp.WithDescription("Get a plan with its full task list."),
		mcp.WithString("plan_id", mcp.Description("Plan ID"), mcp.Required()),
	), getPlanHandler(database))

	s.AddTool(mcp.NewTool("delete_plan",
		mcp.WithDescription("Delete a plan and all of its tasks."),
		mcp.WithString("plan_id", mcp.Description("Plan ID"), mcp.Required()),
	), deletePlanHandler(database))

	s.AddTool(mcp.NewTool("update_task_status",
		mcp.WithDescription("Update a task's status (pending|in_progress|completed)."),
		mcp.WithString("task_id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("status", mcp.Description("New status"), mcp.Required()),
	), updateTaskStatusHandler(database))

	s.AddTool(mcp.NewTool("get_critical_path",
		mcp.WithDescription("Get the positions of the longest dependency chain in a plan."),
		mcp.WithString("plan_id", mcp.Description("Plan ID"), mcp.Required()),
	), getCriticalPathHandler(database))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func createPlanHandler(database *db.DB, svc *planner.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		goal := mcp.ParseString(request, "goal", "")

		plan, err := svc.CreatePlan(ctx, goal)
		if errors.Is(err, planner.ErrEmptyGoal) {
			return mcp.NewToolResultError("goal must not be empty"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := database.CreatePlan(ctx, plan); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(plan)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func listPlansHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		plans, err := database.ListPlans(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(map[string]any{"plans": plans})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func getPlanHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		planID := mcp.ParseString(request, "plan_id", "")

		plan, err := database.GetPlan(ctx, planID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if plan == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Plan '%s' not found", planID)), nil
		}

		data, err := json.Marshal(plan)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func deletePlanHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		planID := mcp.ParseString(request, "plan_id", "")

		err := database.DeletePlan(ctx, planID)
		if errors.Is(err, db.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Plan '%s' not found", planID)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Plan deleted successfully"), nil
	}
}

func updateTaskStatusHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID := mcp.ParseString(request, "task_id", "")
		status := models.TaskStatus(mcp.ParseString(request, "status", ""))

		if !status.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid status '%s' (want pending|in_progress|completed)", status)), nil
		}

		err := database.UpdateTaskStatus(ctx, taskID, status)
		if errors.Is(err, db.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Task '%s' not found", taskID)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task status updated to %s", status)), nil
	}
}

func getCriticalPathHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		planID := mcp.ParseString(request, "plan_id", "")

		plan, err := database.GetPlan(ctx, planID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if plan == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Plan '%s' not found", planID)), nil
		}

		data, err := json.Marshal(map[string]any{
			"plan_id":       plan.ID,
			"critical_path": planner.CriticalPath(plan.Tasks),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
