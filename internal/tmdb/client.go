package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

var (
	// ErrStatus is wrapped by every error caused by a non-200 upstream reply.
	ErrStatus = errors.New("tmdb: unexpected status")
	// ErrNotFound is additionally wrapped when the reply is a 404.
	ErrNotFound = errors.New("tmdb: not found")
)

type Client struct {
	APIKey   string
	BaseURL  string
	Language string
	Region   string
	HTTP     *http.Client
}

// Movie is the normalized catalog record.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type Cast struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
}

type Crew struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Credits struct {
	Cast     []Cast `json:"cast"`
	Director *Crew  `json:"director"`
}

type Video struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type listResponse struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

func (l listResponse) movies() []Movie {
	if l.Results == nil {
		return []Movie{}
	}
	return l.Results
}

func New(apiKey, base string) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		APIKey:   apiKey,
		BaseURL:  strings.TrimRight(base, "/"),
		Language: "ja-JP",
		Region:   "JP",
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.APIKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w %d for %s: %w", ErrStatus, res.StatusCode, path, ErrNotFound)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d for %s", ErrStatus, res.StatusCode, path)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) localized() url.Values {
	q := url.Values{}
	if c.Language != "" {
		q.Set("language", c.Language)
	}
	return q
}

// SearchMovies returns no results for a blank query without calling upstream.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	if strings.TrimSpace(query) == "" {
		return []Movie{}, nil
	}
	q := c.localized()
	q.Set("query", query)
	q.Set("include_adult", "false")
	var out listResponse
	if err := c.get(ctx, "/search/movie", q, &out); err != nil {
		return nil, err
	}
	return out.movies(), nil
}

func (c *Client) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	var out Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), c.localized(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NowPlaying(ctx context.Context) ([]Movie, error) {
	q := c.localized()
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	var out listResponse
	if err := c.get(ctx, "/movie/now_playing", q, &out); err != nil {
		return nil, err
	}
	return out.movies(), nil
}

func (c *Client) TopRated(ctx context.Context) ([]Movie, error) {
	q := c.localized()
	q.Set("page", "1")
	var out listResponse
	if err := c.get(ctx, "/movie/top_rated", q, &out); err != nil {
		return nil, err
	}
	return out.movies(), nil
}

// Trending gets trending movies for a given window (day|week).
func (c *Client) Trending(ctx context.Context, window string) ([]Movie, error) {
	if window != "week" {
		window = "day"
	}
	var out listResponse
	if err := c.get(ctx, "/trending/movie/"+window, c.localized(), &out); err != nil {
		return nil, err
	}
	return out.movies(), nil
}

// Hero lists well-known, highly rated releases since 2020 that carry a usable overview.
func (c *Client) Hero(ctx context.Context) ([]Movie, error) {
	q := c.localized()
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	q.Set("primary_release_date.gte", "2020-01-01")
	q.Set("primary_release_date.lte", time.Now().Format(time.DateOnly))
	q.Set("vote_average.gte", "7.0")
	q.Set("vote_count.gte", "500")
	q.Set("sort_by", "vote_count.desc")
	var out listResponse
	if err := c.get(ctx, "/discover/movie", q, &out); err != nil {
		return nil, err
	}
	movies := out.movies()
	kept := movies[:0]
	for _, m := range movies {
		if len([]rune(strings.TrimSpace(m.Overview))) > 20 {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// Credits returns the first ten cast members and the director. An upstream
// rejection yields empty credits rather than an error.
func (c *Client) Credits(ctx context.Context, id int64) (*Credits, error) {
	var raw struct {
		Cast []Cast `json:"cast"`
		Crew []Crew `json:"crew"`
	}
	err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), c.localized(), &raw)
	if errors.Is(err, ErrStatus) {
		return &Credits{Cast: []Cast{}}, nil
	}
	if err != nil {
		return nil, err
	}
	out := &Credits{Cast: []Cast{}}
	if raw.Cast != nil {
		out.Cast = raw.Cast[:min(len(raw.Cast), 10)]
	}
	for _, cr := range raw.Crew {
		if cr.Job == "Director" {
			d := cr
			out.Director = &d
			break
		}
	}
	return out, nil
}

// Videos lists YouTube trailers and teasers. Language is left unset because
// localized trailers are rarely available.
func (c *Client) Videos(ctx context.Context, id int64) ([]Video, error) {
	var raw struct {
		Results []Video `json:"results"`
	}
	err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", id), nil, &raw)
	if errors.Is(err, ErrStatus) {
		return []Video{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Video, 0, len(raw.Results))
	for _, v := range raw.Results {
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") {
			out = append(out, v)
		}
	}
	return out, nil
}
