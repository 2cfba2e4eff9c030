package tools

// init registers the nine context-gathering tools into the package catalog.
// Factories are process-global; per-request budget state lives in Registry.
func init() {
	register(ToolFetchPage, func(_ Deps) (Tool, error) {
		return NewFetchPageTool(), nil
	})
	register(ToolWebSearch, func(deps Deps) (Tool, error) {
		provider := deps.SearchProvider
		if provider == nil {
			provider = NewDuckDuckGoProvider()
		}
		return NewWebSearchTool(provider), nil
	})
	register(ToolImageProbe, func(_ Deps) (Tool, error) {
		return NewImageProbeTool(), nil
	})
	register(ToolPDFExtract, func(_ Deps) (Tool, error) {
		return NewPDFExtractTool(), nil
	})
	register(ToolFormDetect, func(_ Deps) (Tool, error) {
		return NewFormDetectTool(), nil
	})
	register(ToolSocialFind, func(_ Deps) (Tool, error) {
		return NewSocialFindTool(), nil
	})
	register(ToolSEOAudit, func(_ Deps) (Tool, error) {
		return NewSEOAuditTool(), nil
	})
	register(ToolMapsLookup, func(_ Deps) (Tool, error) {
		return NewMapsLookupTool(""), nil
	})
	register(ToolReviewsLookup, func(_ Deps) (Tool, error) {
		return NewReviewsLookupTool(""), nil
	})
}
