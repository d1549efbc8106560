package validation

import (
	"strings"

	api "syndicate/stevedore/pkg/api/stevedore"
)

// ValidatePostSucceeded returns the required fields missing from a
// post-succeeded event. An empty slice means the event is well formed.
func ValidatePostSucceeded(req *api.PostSucceededRequest) []string {
	return missingCommonFields(req.ContentID, req.Title, req.ContentType, req.Tier, req.Platform, req.ManagementTool)
}

// ValidatePostFailed returns the required fields missing from a post-failed
// event. errorMessage is required on top of the common set.
func ValidatePostFailed(req *api.PostFailedRequest) []string {
	missing := missingCommonFields(req.ContentID, req.Title, req.ContentType, req.Tier, req.Platform, req.ManagementTool)
	if strings.TrimSpace(req.ErrorMessage) == "" {
		missing = append(missing, "error_message")
	}
	return missing
}

func missingCommonFields(contentID, title, contentType, tier, platform, managementTool string) []string {
	var missing []string
	if strings.TrimSpace(contentID) == "" {
		missing = append(missing, "content_id")
	}
	if strings.TrimSpace(title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(contentType) == "" {
		missing = append(missing, "content_type")
	}
	if strings.TrimSpace(tier) == "" {
		missing = append(missing, "tier")
	}
	if strings.TrimSpace(platform) == "" {
		missing = append(missing, "platform")
	}
	if strings.TrimSpace(managementTool) == "" {
		missing = append(missing, "management_tool")
	}
	return missing
}

// NormalizeTargeted applies the single-platform default when the caller
// omits platforms_targeted.
func NormalizeTargeted(targeted int) int {
	if targeted < 1 {
		return 1
	}
	return targeted
}
