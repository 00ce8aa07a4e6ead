package intelligence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"callpilot/models"
)

// Model temperatures. Extraction wants consistency, the agent gets a little
// room to phrase its summary.
const (
	agentTemperature      = 0.4
	extractionTemperature = 0.1
)

// Gemini backs both the Reasoner and Extractor ports with Google's hosted
// models.
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates the Gemini client.
func NewGemini(apiKey, modelName string) *Gemini {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		panic(fmt.Sprintf("failed to create Gemini client: %v", err))
	}
	if modelName == "" {
		modelName = "models/gemini-1.5-pro"
	}
	return &Gemini{client: client, modelName: modelName}
}

// Next sends the conversation with the declared tools and converts the reply
// back into a turn, keeping any function calls the model requested.
func (g *Gemini) Next(ctx context.Context, conversation []models.Turn, tools []ToolSpec) (*models.Turn, error) {
	if len(conversation) == 0 {
		return nil, fmt.Errorf("empty conversation")
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(agentTemperature)
	if decls := functionDeclarations(tools); len(decls) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	// System turns become the system instruction; everything else is chat
	// history, with the newest turn sent as the message.
	var history []*genai.Content
	for _, turn := range conversation {
		switch turn.Role {
		case models.RoleSystem:
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(turn.Content)}}
		case models.RoleUser:
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(turn.Content)},
			})
		case models.RoleAssistant:
			var parts []genai.Part
			if turn.Content != "" {
				parts = append(parts, genai.Text(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.Text(""))
			}
			history = append(history, &genai.Content{Role: "model", Parts: parts})
		case models.RoleTool:
			var parts []genai.Part
			for _, res := range turn.ToolResults {
				parts = append(parts, genai.FunctionResponse{Name: res.Name, Response: res.Payload})
			}
			history = append(history, &genai.Content{Role: "function", Parts: parts})
		}
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("conversation has no sendable turns")
	}

	session := model.StartChat()
	session.History = history[:len(history)-1]

	resp, err := session.SendMessage(ctx, history[len(history)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	turn := &models.Turn{Role: models.RoleAssistant}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			sb.WriteString(string(v))
		case genai.FunctionCall:
			turn.ToolCalls = append(turn.ToolCalls, models.ToolCall{Name: v.Name, Args: v.Args})
		}
	}
	turn.Content = strings.TrimSpace(sb.String())
	return turn, nil
}

// Extract asks the model for structured preferences from free text.
func (g *Gemini) Extract(ctx context.Context, userText string, known Known) (*Extraction, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(extractionTemperature)

	resp, err := model.GenerateContent(ctx, genai.Text(extractionPrompt(userText, known)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return parseExtraction(sb.String())
}

func functionDeclarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := map[string]*genai.Schema{}
		var required []string
		for _, p := range t.Params {
			schemaType := genai.TypeString
			if p.Type == "number" {
				schemaType = genai.TypeNumber
			}
			props[p.Name] = &genai.Schema{Type: schemaType, Description: p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return decls
}

func extractionPrompt(userText string, known Known) string {
	orNotSet := func(s string) string {
		if s == "" {
			return "NOT SET"
		}
		return s
	}
	radius := "NOT SET"
	if known.RadiusKm > 0 {
		radius = strconv.FormatFloat(known.RadiusKm, 'f', -1, 64)
	}

	return fmt.Sprintf(`You are extracting structured appointment preferences from a user's request.

User Query: %q

Current state (do NOT overwrite if already set):
- Specialty: %s
- Time window: %s
- Radius (km): %s
- User location: %s

Rules:
- Return ONLY valid JSON. No prose, no markdown, no explanations.
- Use null when the user did not specify the field.
- Keep user wording for time_window when possible (e.g., "next Tuesday morning").
- Convert distance to kilometers if stated in miles (mi -> km), otherwise use numeric km.
- If user asks for "near me/nearby/close", set location_preference accordingly and radius_km to 3.0.
- If a specific provider/practice name is mentioned, put it in provider_name verbatim.

Output JSON schema:
{
"specialty": "string or null",
"time_window": "string or null",
"radius_km": "number or null",
"location_preference": "string or null",
"provider_name": "string or null",
"urgency": "string or null"
}`,
		userText,
		orNotSet(known.Specialty),
		orNotSet(known.TimeWindow),
		radius,
		orNotSet(known.UserLocation),
	)
}
