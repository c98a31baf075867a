package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Verdict is the external judge's decision on a single answer.
type Verdict struct {
	Valid  bool   `json:"valida"`
	Reason string `json:"razon"`
}

// Judge semantically validates an answer beyond the rule-based checks.
// Implementations must respect the context deadline; callers treat any error
// as "accept the answer".
type Judge interface {
	Judge(ctx context.Context, letter, category, answer string) (Verdict, error)
}

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const judgeSystemPrompt = "Eres un juez del juego Basta. Marca valida=false si la respuesta " +
	"no corresponde a la categoría, no tiene sentido, es ofensiva o no empieza con la letra " +
	"indicada. Responde SOLO en JSON con el formato {\"valida\": true, \"razon\": \"texto breve\"}."

// OpenAIJudge asks a chat-completions model for a verdict, one answer per
// request, in strict JSON mode.
type OpenAIJudge struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAIJudge(apiKey, model string) *OpenAIJudge {
	return &OpenAIJudge{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIEndpoint,
		client:   &http.Client{Timeout: judgeTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (j *OpenAIJudge) Judge(ctx context.Context, letter, category, answer string) (Verdict, error) {
	question, err := json.Marshal(map[string]string{
		"letra":     letter,
		"categoria": category,
		"respuesta": answer,
	})
	if err != nil {
		return Verdict{}, err
	}

	reqBody := chatRequest{
		Model:       j.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: string(question)},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return Verdict{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode judge response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return Verdict{}, fmt.Errorf("judge returned no content")
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &verdict); err != nil {
		return Verdict{}, fmt.Errorf("failed to parse verdict: %w", err)
	}
	return verdict, nil
}
