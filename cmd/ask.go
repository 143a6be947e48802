package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/model"
	"github.com/pable/go-cs-positions/internal/storage"
)

const askSystemPrompt = `You are a Counter-Strike 2 analyst studying how one team defends a bombsite.
You are given structured positioning data from a demo-analysis tool and a question.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers (rounds, percentages, players) when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise. Focus on tendencies an opponent could exploit.

Glossary:
- area: named sub-zone of the region. "<Region> Area" means inside the region but in no named zone.
- primary_position: the area a defender spent the most samples in that round.
- entry_point: the area of the first sample inside the region ("unknown" when not an entry zone).
- overall_frequency: rounds with a defender primarily in the area / total rounds.
- buy types: pistol (first round of each half), eco, light_buy, full_buy.
- time_in_site: seconds between the first and last sample inside the region.
- value_estimated: the weapon was unreadable and the equipment value is a heuristic.`

var (
	askModel  string
	askAPIKey string
)

var askCmd = &cobra.Command{
	Use:   "ask <hash-prefix> <question>",
	Short: "AI-powered grounded analysis of a stored analysis (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	s, err := db.GetAnalysisByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find analysis: %w", err)
	}
	if s == nil {
		return fmt.Errorf("no analysis found with hash prefix %q", args[0])
	}
	question := args[1]

	agg, err := db.GetPositionStats(s.Hash)
	if err != nil {
		return fmt.Errorf("query position stats: %w", err)
	}
	rounds, err := db.GetRoundProfiles(s.Hash)
	if err != nil {
		return fmt.Errorf("query round profiles: %w", err)
	}

	contextJSON, err := buildAskContext(*s, agg, rounds)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	return callAnthropic(cmd.Context(), askAPIKey, askModel, contextJSON, question)
}

// buildAskContext serialises a stored analysis into compact JSON. Journeys are
// reduced to their area path to keep the prompt small.
func buildAskContext(s model.AnalysisSummary, agg model.AggregateStats, rounds []model.RoundResult) (string, error) {
	type profileEntry struct {
		Round     int      `json:"round"`
		Player    string   `json:"player"`
		BuyType   string   `json:"buy_type"`
		Weapon    string   `json:"weapon"`
		Value     int      `json:"value"`
		Estimated bool     `json:"value_estimated,omitempty"`
		Entry     string   `json:"entry_point"`
		Primary   string   `json:"primary_position"`
		Time      float64  `json:"time_in_site"`
		Path      string   `json:"path"`
		Utility   []string `json:"utility,omitempty"`
	}

	profiles := make([]profileEntry, 0)
	for _, r := range rounds {
		for _, p := range r.Players {
			e := profileEntry{
				Round:     r.RoundNumber,
				Player:    p.Name,
				BuyType:   string(p.BuyType),
				Weapon:    p.Equipment.PrimaryWeapon,
				Value:     p.Equipment.EquipmentValue,
				Estimated: p.Equipment.ValueEstimated,
				Entry:     p.EntryPoint,
				Primary:   p.PrimaryPosition,
				Time:      p.TimeInSite,
				Path:      areaPath(p.Journey),
			}
			for _, u := range p.UtilityThrows {
				e.Utility = append(e.Utility, u.Type+"@"+u.Area)
			}
			profiles = append(profiles, e)
		}
	}

	doc := map[string]interface{}{
		"subject":        "region occupation",
		"source":         s.SourceID,
		"map":            s.MapName,
		"region":         s.Region,
		"total_rounds":   s.TotalRounds,
		"position_stats": agg.PositionStats,
		"profiles":       profiles,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func areaPath(points []model.JourneyPoint) string {
	var parts []string
	for _, p := range points {
		if len(parts) == 0 || parts[len(parts)-1] != p.Area {
			parts = append(parts, p.Area)
		}
	}
	return strings.Join(parts, ">")
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	cHeader.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: askSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	cHeader.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
