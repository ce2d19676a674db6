package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trivia-quest/internal/domain"
)

// DefaultBaseURL is the public Open Trivia Database endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Client fetches questions from the Open Trivia Database. A single failed
// request surfaces immediately; there is no retry.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type triviaQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type triviaResponse struct {
	ResponseCode int              `json:"response_code"`
	Results      []triviaQuestion `json:"results"`
}

// FetchQuestions performs one GET against api.php and normalizes the
// results: every free-text field is HTML-entity-unescaped and each question
// gets a session-local ID equal to its position in the response. Option
// shuffling is left to the caller. A non-2xx status or a non-zero
// response_code in the payload both count as a fetch failure.
func (c *Client) FetchQuestions(ctx context.Context, cfg domain.QuizConfig) ([]domain.Question, error) {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(cfg.Amount))
	if cfg.Difficulty != domain.DifficultyAny {
		params.Set("difficulty", string(cfg.Difficulty))
	}
	if cfg.Type != domain.TypeAny {
		params.Set("type", string(cfg.Type))
	}
	if cfg.Category > 0 {
		params.Set("category", strconv.Itoa(cfg.Category))
	}

	var data triviaResponse
	if err := c.getJSON(ctx, "/api.php?"+params.Encode(), &data); err != nil {
		return nil, err
	}
	if data.ResponseCode != 0 {
		return nil, fmt.Errorf("%w: response code %d", domain.ErrFetchFailed, data.ResponseCode)
	}

	questions := make([]domain.Question, 0, len(data.Results))
	for i, result := range data.Results {
		incorrect := make([]string, len(result.IncorrectAnswers))
		for j, answer := range result.IncorrectAnswers {
			incorrect[j] = html.UnescapeString(answer)
		}
		questions = append(questions, domain.Question{
			ID:               i,
			Category:         html.UnescapeString(result.Category),
			Type:             domain.QuestionType(result.Type),
			Difficulty:       domain.Difficulty(result.Difficulty),
			Prompt:           html.UnescapeString(result.Question),
			CorrectAnswer:    html.UnescapeString(result.CorrectAnswer),
			IncorrectAnswers: incorrect,
		})
	}
	return questions, nil
}

type categoryResponse struct {
	TriviaCategories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

// FetchCategories lists the question categories offered by the API.
func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	var data categoryResponse
	if err := c.getJSON(ctx, "/api_category.php", &data); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(data.TriviaCategories))
	for _, entry := range data.TriviaCategories {
		categories = append(categories, domain.Category{
			ID:   entry.ID,
			Name: html.UnescapeString(entry.Name),
		})
	}
	return categories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", domain.ErrFetchFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrFetchFailed, err)
	}
	return nil
}
