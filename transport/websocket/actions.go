package websocket

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// ServiceActionHandler applies client actions through the game service. The
// resulting state reaches clients through the game's own events. An ignored
// flip produces no game event, so the sender gets a flip_ignored reply with
// the reason and the current state.
func ServiceActionHandler(svc service.GameService) ActionHandler {
	return func(ctx context.Context, sessionID string, action Action) (*Message, error) {
		var err error
		switch action.Action {
		case ActionFlip:
			if action.CardID == "" {
				return nil, fmt.Errorf("card_id is required")
			}
			var res *service.FlipResult
			res, err = svc.FlipCard(ctx, sessionID, action.CardID)
			if err == nil && !res.Accepted {
				return &Message{
					Event:     EventFlipIgnored,
					CardIDs:   []string{action.CardID},
					Reason:    res.Reason,
					GameState: res.GameState.Redacted(),
				}, nil
			}
		case ActionRestart:
			_, err = svc.Restart(ctx, sessionID)
		case ActionSetDifficulty:
			_, err = svc.SetDifficulty(ctx, sessionID, action.Difficulty)
		case ActionToggleSettings:
			_, err = svc.ToggleSettings(ctx, sessionID)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Action)
		}
		return nil, err
	}
}
