package classify

import "github.com/iwangdonghui/tsconv-sub005/internal/core/domain"

// User-facing copy is keyed by category and consumed by the response
// formatting layer, which handles translation.

var userMessages = map[domain.Category]string{
	domain.CategoryValidation:      "The request contains invalid input.",
	domain.CategoryAuthentication:  "Authentication failed. Please sign in again.",
	domain.CategoryAuthorization:   "You do not have permission to perform this action.",
	domain.CategoryRateLimit:       "Too many requests. Please slow down and try again.",
	domain.CategoryTimeout:         "The request took too long to complete.",
	domain.CategoryNetwork:         "A network problem interrupted the request.",
	domain.CategoryDatabase:        "A storage problem prevented the request from completing.",
	domain.CategoryCache:           "A caching problem occurred; results may be slower than usual.",
	domain.CategoryExternalService: "An upstream service is currently unavailable.",
	domain.CategoryBusinessLogic:   "The request could not be processed as submitted.",
	domain.CategorySystem:          "An internal error occurred.",
	domain.CategorySecurity:        "The request was blocked for security reasons.",
}

var suggestionsByCategory = map[domain.Category][]string{
	domain.CategoryValidation: {
		"Check the timestamp or date format and try again.",
		"Use a unix timestamp in seconds or an ISO 8601 date string.",
	},
	domain.CategoryAuthentication: {
		"Refresh the page and sign in again.",
	},
	domain.CategoryRateLimit: {
		"Wait a moment before retrying.",
		"Batch multiple conversions into a single request.",
	},
	domain.CategoryTimeout: {
		"Try the request again.",
		"If the problem persists, check the service status page.",
	},
	domain.CategoryNetwork: {
		"Check your connection and try again.",
	},
	domain.CategoryExternalService: {
		"Try again in a few minutes.",
	},
	domain.CategoryCache: {
		"Retry the request; results will be recomputed.",
	},
}

func userMessage(category domain.Category) string {
	if msg, ok := userMessages[category]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

func suggestions(category domain.Category) []string {
	if s, ok := suggestionsByCategory[category]; ok {
		return s
	}
	return []string{"Try the request again."}
}
