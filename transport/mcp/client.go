package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// boardColumns is the number of cards per row in the text board
const boardColumns = 4

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every pair of matching cards before you run out of turns or time.

AVAILABLE TOOLS:
- create_session: Create new game session (optional difficulty)
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Get the board, remaining turns and time
- flip_card: Flip one card by id or by board position
- restart_game: Deal a fresh game with the same difficulty
- set_difficulty: Switch difficulty (restarts the game)
- list_difficulties: List available difficulties
- game_instructions: Get the full rules

NOTE: After the second card of a pair is revealed the board is locked for a
moment while the cards are compared. Flips sent during that window are ignored.`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional difficulty selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"difficulty": map[string]interface{}{
					"type":        "string",
					"description": "Difficulty id such as EASY, NORMAL or HARD (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, remaining turns and remaining time",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_card",
		Description: "Flip a face-down card. Give either card_id or card_index (1-based board position).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"card_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the card to flip",
				},
				"card_index": map[string]interface{}{
					"type":        "number",
					"description": "1-based position of the card on the board",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFlipCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Deal a fresh game with the session's difficulty",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_difficulty",
		Description: "Switch the session to another difficulty and restart the game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"difficulty": map[string]interface{}{
					"type":        "string",
					"description": "Difficulty id",
				},
			},
			Required: []string{"session_id", "difficulty"},
		},
	}, c.handleSetDifficulty)

	// Catalog
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_difficulties",
		Description: "List all available difficulties",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListDifficulties)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and tips for playing it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	difficulty, _ := arguments(request)["difficulty"].(string)

	body := map[string]string{}
	if difficulty != "" {
		body["difficulty"] = difficulty
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nDifficulty: %s\n\n%s",
		session.ID, session.Difficulty, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		outcome := engine.InProgress
		if s.GameState != nil {
			outcome = s.GameState.Outcome
		}
		fmt.Fprintf(&result, "- %s (Difficulty: %s, Status: %s, Created: %s)\n",
			s.ID, s.Difficulty, outcome, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleFlipCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	cardID, _ := args["card_id"].(string)

	if cardID == "" {
		index, ok := args["card_index"].(float64)
		if !ok {
			return mcp.NewToolResultError("card_id or card_index is required"), nil
		}

		var state engine.GameState
		if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		i := int(index)
		if i < 1 || i > len(state.Cards) {
			return mcp.NewToolResultError(fmt.Sprintf("card_index must be between 1 and %d", len(state.Cards))), nil
		}
		cardID = state.Cards[i-1].ID
	}

	var result service.FlipResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/flip"), map[string]string{"card_id": cardID}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFlipResult(&result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSetDifficulty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	difficulty, _ := args["difficulty"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/difficulty"), map[string]string{"difficulty": difficulty}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Difficulty set to %s\n\n%s", state.Difficulty, formatGameState(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListDifficulties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var difficulties []service.DifficultyInfo
	if err := c.apiCall(ctx, "GET", "/api/difficulties", nil, &difficulties); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Difficulties:\n\n")
	for _, d := range difficulties {
		marker := ""
		if d.IsDefault {
			marker = " (default)"
		}
		fmt.Fprintf(&result, "• %s%s - %s\n  %s\n  Pairs: %d, Turns: %d, Time: %ds\n\n",
			d.ID, marker, d.Name, d.Description, d.Pairs, d.TurnBudget, d.TimeBudget)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Memory Match Game - Complete Instructions

GAME OBJECTIVE:
Every card has exactly one twin. Find all pairs before your turns or your time run out.

HOW A TURN WORKS:
• Flip a face-down card to reveal its number
• Flip a second card
• If the numbers match, both stay face up and count as a matched pair
• If they differ, both turn face down again after a short reveal delay
• While two cards are being compared the whole board is locked: flips are ignored

BUDGETS:
• Turns: revealing the second card of a pair uses one turn
• Time: the clock counts down once per second from the moment the game is dealt
• Matching the last pair wins, even on your very last turn
• Running out of turns or time with pairs left loses the game

IGNORED FLIPS (no turn is used):
• comparison_in_progress - wait for the comparison to finish
• already_flipped - the card is already face up
• already_matched - the card belongs to a found pair
• unknown_card - no card with that id
• game_over - restart to play again

BOARD LEGEND (game_state):
• [ ?? ] face-down card
• [ 07 ] face-up card showing number 7
• ( 07 ) matched card

STRATEGY:
1. Remember every number you have seen and where
2. When the first flip reveals a number you have seen before, flip its twin
3. Otherwise flip an unseen card to learn something new
4. Use card_index with the board positions shown by game_state

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nDifficulty: %s\nCreated: %s\n\n%s",
		session.ID, session.Difficulty,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// nonNegative hides counters that went below zero
func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func formatCard(card engine.Card) string {
	switch {
	case card.IsMatched:
		return fmt.Sprintf("( %02d )", card.Number)
	case card.IsFlipped:
		return fmt.Sprintf("[ %02d ]", card.Number)
	default:
		return "[ ?? ]"
	}
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Difficulty: %s | Turns: %d/%d | Time: %ds/%ds | Pairs: %d/%d\n",
		state.Difficulty,
		nonNegative(state.TurnsLeft), state.TurnBudget,
		nonNegative(state.TimeLeft), state.TimeBudget,
		state.MatchedPairs, state.TotalPairs)
	if state.Comparing {
		result.WriteString("Comparing two cards, the board is locked\n")
	}
	result.WriteString("\n")

	for i, card := range state.Cards {
		fmt.Fprintf(&result, "%2d %s", i+1, formatCard(card))
		if (i+1)%boardColumns == 0 || i == len(state.Cards)-1 {
			result.WriteString("\n")
		} else {
			result.WriteString("  ")
		}
	}

	if len(state.Cards) > 0 {
		result.WriteString("\nCard IDs:\n")
		for i, card := range state.Cards {
			fmt.Fprintf(&result, "%2d %s\n", i+1, card.ID)
		}
	}

	switch state.Outcome {
	case engine.Won:
		result.WriteString("\n🎉 YOU WON!")
	case engine.Lost:
		result.WriteString("\n💀 YOU LOST")
		if state.LossReason != "" {
			fmt.Fprintf(&result, " (out of %s)", state.LossReason)
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatFlipResult(result *service.FlipResult) string {
	var out strings.Builder

	if result.Accepted {
		fmt.Fprintf(&out, "✓ Flipped %s", result.CardID)
		if result.TurnConsumed {
			out.WriteString(" (used a turn)")
		}
		out.WriteString("\n")
		if result.Comparison != nil {
			fmt.Fprintf(&out, "Comparing %s and %s\n", result.Comparison.First, result.Comparison.Second)
		}
	} else {
		fmt.Fprintf(&out, "✗ Flip ignored: %s\n", result.Reason)
	}
	out.WriteString("\n")
	out.WriteString(formatGameState(result.GameState))

	return out.String()
}
