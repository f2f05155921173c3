package confluence

// Wire types for the content REST API. Only the fields the sync engine
// needs are modeled; everything else in the responses is ignored.

// contentPayload is a page resource in requests and responses.
type contentPayload struct {
	ID        string            `json:"id,omitempty"`
	Type      string            `json:"type,omitempty"`
	Title     string            `json:"title,omitempty"`
	Space     *spacePayload     `json:"space,omitempty"`
	Version   *versionPayload   `json:"version,omitempty"`
	Ancestors []ancestorPayload `json:"ancestors,omitempty"`
	Body      *bodyPayload      `json:"body,omitempty"`
}

// versionPayload carries the service-owned version counter.
type versionPayload struct {
	Number  int    `json:"number"`
	Message string `json:"message,omitempty"`
}

type spacePayload struct {
	Key string `json:"key"`
}

type ancestorPayload struct {
	ID string `json:"id"`
}

type bodyPayload struct {
	Storage storagePayload `json:"storage"`
}

type storagePayload struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// listPayload is a paginated content listing response.
type listPayload struct {
	Results []contentPayload `json:"results"`
	Start   int              `json:"start"`
	Limit   int              `json:"limit"`
	Size    int              `json:"size"`
}

// parentID returns the immediate parent from the ancestor chain, which the
// API orders root-first.
func (c *contentPayload) parentID() string {
	if len(c.Ancestors) == 0 {
		return ""
	}
	return c.Ancestors[len(c.Ancestors)-1].ID
}

// version returns the version number, or zero when the expand was absent.
func (c *contentPayload) version() int {
	if c.Version == nil {
		return 0
	}
	return c.Version.Number
}
