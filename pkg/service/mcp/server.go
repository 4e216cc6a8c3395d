package mcp

import (
	"context"
	"encoding/json"

	"github.com/flashfusion/forge/pkg/usecase/analytics"
	"github.com/flashfusion/forge/pkg/usecase/history"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "forge"
	serverVersion = "1.0.0"
)

// Server exposes generation history, analytics and campaign tools over MCP
type Server struct {
	history   *history.Store
	analytics *analytics.Service
	server    *mcp.Server
}

type searchHistoryParams struct {
	Query         string `json:"query,omitempty" jsonschema:"Case-insensitive text matched against title, description and prompt"`
	Type          string `json:"type,omitempty" jsonschema:"Only return generations of this type, e.g. fullstack-app"`
	FavoritesOnly bool   `json:"favorites_only,omitempty" jsonschema:"Only return favorite generations"`
}

type getAnalyticsParams struct {
	SubjectID string `json:"subject_id" jsonschema:"User or workspace to build the dashboard for"`
	TimeRange string `json:"time_range,omitempty" jsonschema:"One of 7d, 30d or 90d"`
	NoCache   bool   `json:"no_cache,omitempty" jsonschema:"Rebuild the dashboard even if a cached one is available"`
}

type calculateROIParams struct {
	Reach      float64 `json:"reach" jsonschema:"Number of people reached"`
	Engagement float64 `json:"engagement" jsonschema:"Engagement rate in percent"`
	Budget     float64 `json:"budget" jsonschema:"Campaign budget"`
}

// NewServer registers the tools backed by store and svc. Either may be nil,
// in which case its tools are not offered.
func NewServer(store *history.Store, svc *analytics.Service) *Server {
	s := &Server{
		history:   store,
		analytics: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
	}

	if store != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search_history",
			Description: "Search past generations, newest first",
		}, s.searchHistory)
	}
	if svc != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_analytics",
			Description: "Build the analytics dashboard of a subject",
		}, s.getAnalytics)
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "calculate_roi",
		Description: "Estimate revenue, profit and ROI of a marketing campaign",
	}, s.calculateROI)

	return s
}

// Run serves requests on transport until ctx is done or the client leaves
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	logging.From(ctx).Info("mcp server started", "name", serverName)
	if err := s.server.Run(ctx, transport); err != nil {
		return goerr.Wrap(err, "mcp server stopped")
	}
	return nil
}

// Connect attaches a single session on transport without blocking
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	session, err := s.server.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect mcp session")
	}
	return session, nil
}

func (s *Server) searchHistory(ctx context.Context, req *mcp.CallToolRequest, params *searchHistoryParams) (*mcp.CallToolResult, any, error) {
	matched := s.history.Find(history.Query{
		Text:          params.Query,
		Type:          params.Type,
		FavoritesOnly: params.FavoritesOnly,
	})

	logging.From(ctx).Debug("search_history called", "query", params.Query, "hits", len(matched))
	return jsonResult(matched)
}

func (s *Server) getAnalytics(ctx context.Context, req *mcp.CallToolRequest, params *getAnalyticsParams) (*mcp.CallToolResult, any, error) {
	useCache := !params.NoCache
	resp, err := s.analytics.Fetch(ctx, params.SubjectID, analytics.FetchOptions{
		TimeRange: params.TimeRange,
		UseCache:  &useCache,
	})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(resp)
}

func (s *Server) calculateROI(ctx context.Context, req *mcp.CallToolRequest, params *calculateROIParams) (*mcp.CallToolResult, any, error) {
	return jsonResult(analytics.CalculateCampaignROI(analytics.Campaign{
		Reach:      params.Reach,
		Engagement: params.Engagement,
		Budget:     params.Budget,
	}))
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to encode tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
