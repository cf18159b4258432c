package launchpadagent

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/config"
	"github.com/launchpad-agents/launchpad/src/launchpadagent/tools"
	"github.com/launchpad-agents/launchpad/src/shop"
	"github.com/launchpad-agents/launchpad/src/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(t *testing.T) *shop.Session {
	t.Helper()
	session, err := shop.NewSession("http://127.0.0.1:1", quietLogger())
	require.NoError(t, err)
	return session
}

func testBioStore(t *testing.T) *storage.BioStore {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "bio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewBioStore(db)
}

func TestBuildToolboxAllGroups(t *testing.T) {
	tb, err := BuildToolbox(ToolboxConfig{
		Settings: config.ToolSettings{
			SearxURL:     "http://localhost:8080",
			LeakAPIURL:   "http://localhost:9090",
			LeakAPIToken: "token",
		},
		Session:  testSession(t),
		BioStore: testBioStore(t),
		Logger:   quietLogger(),
	})
	require.NoError(t, err)

	for _, name := range []string{
		tools.ScrapeName,
		tools.SequentialThinkingName,
		tools.SearchWebName,
		tools.SearchLeakName,
		tools.BatchSearchLeakName,
		tools.SearchProductsName,
		tools.GetProductDetailName,
		tools.AddToCartName,
		tools.GoToCartName,
		tools.AdjustCartName,
		tools.CheckOutName,
		tools.GetOrderHistoryName,
		tools.CancelOrderName,
		tools.RequestRefundName,
		tools.BioName,
		tools.GetBioName,
	} {
		assert.True(t, tb.HasTool(name), "missing tool %s", name)
	}

	g, ok := tb.GroupOf(tools.SearchProductsName)
	require.True(t, ok)
	assert.Equal(t, GroupShoppingBrowsing, g.Name)
	assert.NotEmpty(t, g.Instruction)

	g, ok = tb.GroupOf(tools.CancelOrderName)
	require.True(t, ok)
	assert.Equal(t, GroupPurchaseManagement, g.Name)
	assert.NotEmpty(t, g.Instruction)

	g, ok = tb.GroupOf(tools.ScrapeName)
	require.True(t, ok)
	assert.Equal(t, GroupResearch, g.Name)
	assert.Empty(t, g.Instruction)
}

func TestBuildToolboxRespectsGroupFilter(t *testing.T) {
	tb, err := BuildToolbox(ToolboxConfig{
		Settings: config.ToolSettings{Groups: []string{GroupResearch}},
		Session:  testSession(t),
		BioStore: testBioStore(t),
	})
	require.NoError(t, err)

	assert.True(t, tb.HasTool(tools.ScrapeName))
	assert.False(t, tb.HasTool(tools.SearchProductsName))
	assert.False(t, tb.HasTool(tools.CancelOrderName))
	assert.False(t, tb.HasTool(tools.BioName))
}

func TestBuildToolboxOmitsUnconfiguredEndpoints(t *testing.T) {
	tb, err := BuildToolbox(ToolboxConfig{Settings: config.ToolSettings{}})
	require.NoError(t, err)

	assert.Equal(t, []string{tools.ScrapeName, tools.SequentialThinkingName}, tb.Names())
}

func TestBuildToolboxMCPGroups(t *testing.T) {
	echo := agent.MustNewGenericTool("echo", "echoes input",
		func(ctx context.Context, input struct {
			Text string `json:"text"`
		}) (string, error) {
			return input.Text, nil
		})

	tb, err := BuildToolbox(ToolboxConfig{
		Settings: config.ToolSettings{Groups: []string{GroupResearch}},
		MCPTools: map[string][]agent.Tool{"calc": {echo}},
	})
	require.NoError(t, err)

	require.True(t, tb.HasTool("echo"))
	g, ok := tb.GroupOf("echo")
	require.True(t, ok)
	assert.Equal(t, "mcp:calc", g.Name)
	assert.Empty(t, g.Instruction)
}

func TestPromptSourceDefault(t *testing.T) {
	p := NewPromptSource()
	prompt, err := p.SystemPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, prompt)
}

func TestPromptSourceStatic(t *testing.T) {
	p := NewPromptSource(WithStaticPrompt("be terse"))
	prompt, err := p.SystemPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "be terse", prompt)
}

func TestPromptSourceFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/prompt.txt", []byte("from file\n"), 0o644))

	p := NewPromptSource(WithPromptFile(fs, "/etc/prompt.txt"))
	prompt, err := p.SystemPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from file", prompt)
}

func TestPromptSourceMissingFile(t *testing.T) {
	p := NewPromptSource(WithPromptFile(afero.NewMemMapFs(), "/nope.txt"))
	_, err := p.SystemPrompt(context.Background())
	assert.Error(t, err)
}

func TestPromptSourceAppendsBio(t *testing.T) {
	store := testBioStore(t)
	ctx := context.Background()
	_, err := store.Add(ctx, "prefers window seats")
	require.NoError(t, err)
	_, err = store.Add(ctx, "allergic to peanuts")
	require.NoError(t, err)

	p := NewPromptSource(WithStaticPrompt("base"), WithBio(store))
	prompt, err := p.SystemPrompt(ctx)
	require.NoError(t, err)
	assert.Contains(t, prompt, "base")
	assert.Contains(t, prompt, "Known facts about the user:")
	assert.Contains(t, prompt, "- prefers window seats")
	assert.Contains(t, prompt, "- allergic to peanuts")
}
