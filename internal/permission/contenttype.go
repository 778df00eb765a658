package permission

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ContentType names a protected resource family. Only registered values are
// meaningful; free text is rejected by ParseContentType.
type ContentType string

const (
	ContentTypeAchievement    ContentType = "Achievement"
	ContentTypeCertificate    ContentType = "Certificate"
	ContentTypeComment        ContentType = "Comment"
	ContentTypePost           ContentType = "Post"
	ContentTypeProduct        ContentType = "Product"
	ContentTypeProgram        ContentType = "Program"
	ContentTypeProject        ContentType = "Project"
	ContentTypePromoCode      ContentType = "PromoCode"
	ContentTypeTestingRequest ContentType = "TestingRequest"
	ContentTypeTestingSession ContentType = "TestingSession"
)

// resourceTables maps each content type to the table holding its
// resource-instance grants.
var resourceTables = map[ContentType]string{
	ContentTypeAchievement:    "achievement_permissions",
	ContentTypeCertificate:    "certificate_permissions",
	ContentTypeComment:        "comment_permissions",
	ContentTypePost:           "post_permissions",
	ContentTypeProduct:        "product_permissions",
	ContentTypeProgram:        "program_permissions",
	ContentTypeProject:        "project_permissions",
	ContentTypePromoCode:      "promo_code_permissions",
	ContentTypeTestingRequest: "testing_request_permissions",
	ContentTypeTestingSession: "testing_session_permissions",
}

var foldedContentTypes = func() map[string]ContentType {
	out := make(map[string]ContentType, len(resourceTables))
	for ct := range resourceTables {
		out[cases.Fold().String(string(ct))] = ct
	}
	return out
}()

// ContentTypes lists the registered content types in name order.
func ContentTypes() []ContentType {
	out := make([]ContentType, 0, len(resourceTables))
	for ct := range resourceTables {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseContentType resolves a content type name case-insensitively.
func ParseContentType(raw string) (ContentType, error) {
	key := cases.Fold().String(strings.TrimSpace(raw))
	if ct, ok := foldedContentTypes[key]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContentType, raw)
}

// Known reports whether c is registered.
func (c ContentType) Known() bool {
	_, ok := resourceTables[c]
	return ok
}

// ResourceTable returns the resource-grant table for c.
func (c ContentType) ResourceTable() (string, bool) {
	table, ok := resourceTables[c]
	return table, ok
}

func (c ContentType) String() string {
	return string(c)
}
