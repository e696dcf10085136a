package scraper

import (
	"context"
	"testing"

	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/logging"
	"go-leadgen-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalProfileURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
		ok   bool
	}{
		{
			name: "absolute with tracking params",
			href: "https://www.linkedin.com/in/ada-lovelace?miniProfileUrn=urn%3Ali%3Afs_miniProfile%3AABC&trackingId=xyz",
			want: "https://www.linkedin.com/in/ada-lovelace",
			ok:   true,
		},
		{
			name: "relative path",
			href: "/in/ada-lovelace/",
			want: "https://www.linkedin.com/in/ada-lovelace",
			ok:   true,
		},
		{
			name: "trailing slash stripped",
			href: "https://www.linkedin.com/in/ada-lovelace/",
			want: "https://www.linkedin.com/in/ada-lovelace",
			ok:   true,
		},
		{
			name: "non-profile link rejected",
			href: "https://www.linkedin.com/company/acme",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := canonicalProfileURL(tt.href)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// the same profile under different tracking params must canonicalize to one key
func TestCanonicalProfileURL_StableAcrossTracking(t *testing.T) {
	a, _ := canonicalProfileURL("/in/ada-lovelace?trackingId=abc")
	b, _ := canonicalProfileURL("https://www.linkedin.com/in/ada-lovelace/?trackingId=def")
	assert.Equal(t, a, b)
}

func TestSearchURL(t *testing.T) {
	filter := &models.FilterModel{Roles: []string{"Vp Of Sales", "Sales Director"}}
	got := searchURL(filter, 3)

	assert.Contains(t, got, "linkedin.com/search/results/people/")
	assert.Contains(t, got, "keywords=Vp+Of+Sales+OR+Sales+Director")
	assert.Contains(t, got, "page=3")
}

func TestSearchURL_LocationFallback(t *testing.T) {
	filter := &models.FilterModel{Locations: []string{"Berlin"}}
	assert.Contains(t, searchURL(filter, 1), "keywords=Berlin")
}

func TestPager_RepeatsPageUntilCommitted(t *testing.T) {
	p := pager{max: 20}

	n, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, 1, n)

	// a failed fetch never commits, so the same page comes back
	n, ok = p.next()
	require.True(t, ok)
	assert.Equal(t, 1, n)

	p.commit(n)
	n, _ = p.next()
	assert.Equal(t, 2, n)
}

func TestPager_Ceiling(t *testing.T) {
	p := pager{fetched: 20, max: 20}
	_, ok := p.next()
	assert.False(t, ok)

	// max zero means no ceiling
	unbounded := pager{fetched: 1000}
	n, ok := unbounded.next()
	require.True(t, ok)
	assert.Equal(t, 1001, n)
}

func TestDiscovery_ExhaustedAtCeiling(t *testing.T) {
	cfg := &config.Config{}
	cfg.Search.MaxPages = 2

	d := NewDiscovery(cfg, logging.New())
	d.pages.fetched = 2

	// the ceiling check runs before the session is touched
	batch, err := d.Next(context.Background(), nil, &models.FilterModel{})
	require.NoError(t, err)
	assert.Nil(t, batch)

	batch, err = d.Next(context.Background(), nil, &models.FilterModel{})
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func TestSessionDropped(t *testing.T) {
	assert.True(t, sessionDropped("https://www.linkedin.com/login?session_redirect=..."))
	assert.True(t, sessionDropped("https://www.linkedin.com/authwall?trk=..."))
	assert.True(t, sessionDropped("https://www.linkedin.com/uas/login-submit"))
	assert.False(t, sessionDropped("https://www.linkedin.com/search/results/people/?keywords=cto"))
	assert.False(t, sessionDropped("https://www.linkedin.com/in/ada-lovelace"))
}
