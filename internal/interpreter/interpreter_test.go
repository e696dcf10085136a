package interpreter

import (
	"context"
	"errors"
	"testing"

	"go-leadgen-automation/internal/logging"
	"go-leadgen-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient replays canned backend outputs in order.
type fakeClient struct {
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.outputs[i], err
}

type fakeCreds struct {
	creds models.Credentials
	err   error
}

func (f *fakeCreds) GetCredentials(ctx context.Context) (*models.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := f.creds
	return &c, nil
}

func newTestInterpreter(client *fakeClient) *Interpreter {
	i := New(&fakeCreds{creds: models.Credentials{OpenAIKey: "sk-test"}}, logging.New())
	i.newClient = func(provider models.Provider, apiKey string) Client { return client }
	return i
}

func TestParse_StructuredQuery(t *testing.T) {
	client := &fakeClient{outputs: []string{`{
		"roles": ["vp of sales", "sales  director"],
		"locations": ["new york"],
		"company_size_min": 50,
		"industries": ["saas"],
		"seniority_levels": ["vp", "director", "vice president"]
	}`}}

	filter, err := newTestInterpreter(client).Parse(context.Background(), "Find VPs of Sales at SaaS companies in New York with 50+ employees", models.ProviderOpenAI, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Vp Of Sales", "Sales Director"}, filter.Roles)
	assert.Equal(t, []string{"New York"}, filter.Locations)
	assert.Equal(t, 50, filter.CompanySizeMin)
	assert.Equal(t, []string{"Saas"}, filter.Industries)
	// duplicate "vice president" collapses into the vp tag
	assert.Equal(t, []models.Seniority{models.SeniorityVP, models.SeniorityDirector}, filter.SeniorityTags)
	assert.Equal(t, models.DefaultResultCap, filter.ResultCap)
	assert.Equal(t, 1, client.calls)
}

func TestParse_MarkdownFencedOutput(t *testing.T) {
	client := &fakeClient{outputs: []string{"```json\n{\"roles\": [\"cto\"], \"locations\": []}\n```"}}

	filter, err := newTestInterpreter(client).Parse(context.Background(), "find CTOs", models.ProviderOpenAI, 25)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cto"}, filter.Roles)
	assert.Equal(t, 25, filter.ResultCap)
}

func TestParse_GibberishQuery(t *testing.T) {
	// backend answers with a well-formed but empty filter
	client := &fakeClient{outputs: []string{`{"roles": [], "locations": [], "industries": [], "seniority_levels": []}`}}

	_, err := newTestInterpreter(client).Parse(context.Background(), "asdf qwerty zxcv", models.ProviderOpenAI, 0)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, KindEmptyResult, parseErr.Kind)
}

func TestParse_MalformedThenCorrected(t *testing.T) {
	client := &fakeClient{outputs: []string{
		"Sure! Here are some great leads for you.",
		`{"roles": ["marketing director"], "locations": ["berlin"]}`,
	}}

	filter, err := newTestInterpreter(client).Parse(context.Background(), "marketing directors in berlin", models.ProviderOpenAI, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Marketing Director"}, filter.Roles)
	assert.Equal(t, 2, client.calls, "expected one corrective re-prompt")
}

func TestParse_MalformedTwice(t *testing.T) {
	client := &fakeClient{outputs: []string{"not json", "still not json"}}

	_, err := newTestInterpreter(client).Parse(context.Background(), "marketing directors in berlin", models.ProviderOpenAI, 0)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, KindMalformedResponse, parseErr.Kind)
}

func TestParse_BackendDown(t *testing.T) {
	boom := errors.New("connection refused")
	client := &fakeClient{outputs: []string{"", ""}, errs: []error{boom, boom}}

	_, err := newTestInterpreter(client).Parse(context.Background(), "ctos in london", models.ProviderOpenAI, 0)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, KindBackendUnavailable, parseErr.Kind)
	assert.Equal(t, 2, client.calls, "expected exactly one transport retry")
}

func TestParse_TransientBackendError(t *testing.T) {
	client := &fakeClient{
		outputs: []string{"", `{"roles": ["founder"], "locations": []}`},
		errs:    []error{errors.New("timeout"), nil},
	}

	filter, err := newTestInterpreter(client).Parse(context.Background(), "startup founders", models.ProviderOpenAI, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Founder"}, filter.Roles)
}

func TestParse_InputValidation(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		provider models.Provider
		creds    models.Credentials
		wantKind ParseKind
	}{
		{
			name:     "empty query",
			query:    "   ",
			provider: models.ProviderOpenAI,
			creds:    models.Credentials{OpenAIKey: "sk-test"},
			wantKind: KindEmptyResult,
		},
		{
			name:     "unknown provider",
			query:    "ctos in london",
			provider: models.Provider("grok"),
			creds:    models.Credentials{OpenAIKey: "sk-test"},
			wantKind: KindBackendUnavailable,
		},
		{
			name:     "no api key for provider",
			query:    "ctos in london",
			provider: models.ProviderClaude,
			creds:    models.Credentials{OpenAIKey: "sk-test"},
			wantKind: KindBackendUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := New(&fakeCreds{creds: tt.creds}, logging.New())
			i.newClient = func(models.Provider, string) Client {
				t.Fatal("backend must not be called")
				return nil
			}
			_, err := i.Parse(context.Background(), tt.query, tt.provider, 0)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.wantKind, parseErr.Kind)
		})
	}
}

func TestCleanMarkdownJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `Here you go: {"a": 1} hope it helps`, `{"a": 1}`},
		{"no object passes through", "sorry, cannot help", "sorry, cannot help"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownJSON(tt.in))
		})
	}
}

func TestMapSeniority(t *testing.T) {
	tests := []struct {
		in   string
		want models.Seniority
		ok   bool
	}{
		{"VP", models.SeniorityVP, true},
		{"Vice President", models.SeniorityVP, true},
		{"chief", models.SeniorityCLevel, true},
		{"Entry-Level", models.SeniorityEntry, true},
		{"wizard", "", false},
	}
	for _, tt := range tests {
		got, ok := mapSeniority(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
