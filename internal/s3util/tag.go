package s3util

// projectTag is the URL-encoded object tagging applied to uploaded artifacts
// for cost allocation.
const projectTag = "Project=reel-studio"

// ProjectTagging returns the tagging string for PutObjectInput.Tagging.
func ProjectTagging() *string {
	t := projectTag
	return &t
}
