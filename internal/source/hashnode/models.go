package hashnode

// graphQLRequest is the POST body sent to the Hashnode GraphQL endpoint.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type listResponse struct {
	Data struct {
		User *struct {
			Posts struct {
				Edges []struct {
					Node PostNode `json:"node"`
				} `json:"edges"`
			} `json:"posts"`
		} `json:"user"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type detailResponse struct {
	Data struct {
		Post *PostNode `json:"post"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// PostNode is the post shape shared by the list and detail queries.
// Content is only selected by the detail query.
type PostNode struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Brief             string `json:"brief"`
	Slug              string `json:"slug"`
	URL               string `json:"url"`
	CanonicalURL      string `json:"canonicalUrl"`
	PublishedAt       string `json:"publishedAt"`
	ReadTimeInMinutes *int   `json:"readTimeInMinutes"`
	ReactionCount     int    `json:"reactionCount"`
	ResponseCount     int    `json:"responseCount"`
	Views             int    `json:"views"`
	CoverImage        *struct {
		URL string `json:"url"`
	} `json:"coverImage"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Author *struct {
		Name           string  `json:"name"`
		Username       string  `json:"username"`
		ProfilePicture *string `json:"profilePicture"`
	} `json:"author"`
	Content *struct {
		HTML string `json:"html"`
	} `json:"content"`
}
