package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Registry holds the tools exposed by the server. It is populated once at startup
// and only read afterwards.
type Registry struct {
	tools    map[string]tools.Tool
	disabled map[string]bool
	logger   *logrus.Logger
	limiter  *rate.Limiter
}

// New creates a registry, reading disabled tool names from DISABLED_TOOLS
func New(logger *logrus.Logger) *Registry {
	r := &Registry{
		tools:  make(map[string]tools.Tool),
		logger: logger,
	}
	r.disabled = parseDisabledTools(os.Getenv("DISABLED_TOOLS"), logger)
	return r
}

// parseDisabledTools parses a comma separated list of tool names
func parseDisabledTools(value string, logger *logrus.Logger) map[string]bool {
	disabled := make(map[string]bool)
	for name := range strings.SplitSeq(value, ",") {
		name = normaliseName(name)
		if name == "" {
			continue
		}
		disabled[name] = true
		logger.WithField("tool", name).Debug("Tool disabled")
	}
	return disabled
}

// normaliseName lowercases a tool name and maps hyphens to underscores
func normaliseName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

// SetRateLimit caps Execute at perSecond invocations per second. Zero or less removes the cap.
func (r *Registry) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		r.limiter = nil
		return
	}
	burst := max(int(perSecond), 1)
	r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	r.logger.WithField("per_second", perSecond).Debug("Tool rate limit configured")
}

// Register adds a tool unless it has been disabled
func (r *Registry) Register(tool tools.Tool) {
	name := tool.Definition().Name
	if r.disabled[normaliseName(name)] {
		r.logger.WithField("tool", name).Debug("Tool not registered (disabled)")
		return
	}
	r.tools[name] = tool
	r.logger.WithField("tool", name).Debug("Tool successfully registered")
}

// Tool retrieves a registered tool by name
func (r *Registry) Tool(name string) (tools.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Tools returns a copy of the registered tools keyed by name
func (r *Registry) Tools() map[string]tools.Tool {
	out := make(map[string]tools.Tool, len(r.tools))
	for name, tool := range r.tools {
		out[name] = tool
	}
	return out
}

// Names returns the sorted names of registered tools
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesWithExtendedHelp returns the sorted names of tools that provide extended help
func (r *Registry) NamesWithExtendedHelp() []string {
	var names []string
	for name, tool := range r.tools {
		if _, ok := tool.(tools.ExtendedHelpProvider); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Logger returns the shared logger
func (r *Registry) Logger() *logrus.Logger {
	return r.logger
}

// Execute runs the named tool, waiting for the rate limiter when one is configured
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	tool, ok := r.Tool(name)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	if args == nil {
		args = map[string]any{}
	}
	return tool.Execute(ctx, r.logger, args)
}
