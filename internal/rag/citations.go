package rag

import (
	"fmt"
	"strings"
)

// AttachCitations appends a source-type-specific attribution suffix to the
// answer. Empty sources are a no-op, so llm/error answers (which carry no
// citations) pass through untouched and re-application never doubles a
// suffix.
func AttachCitations(answer string, sourceType SourceType, sources []string) string {
	if len(sources) == 0 {
		return answer
	}

	switch sourceType {
	case SourceLocal:
		return answer + "\n\n📄 From: " + formatFileList(sources)
	case SourceWeb:
		return answer + "\n\n🔗 According to: " + sources[0]
	case SourceHybrid:
		files, urls := splitSources(sources)
		var suffix strings.Builder
		if len(files) > 0 {
			suffix.WriteString("\n\n📄 From: " + formatFileList(files))
		}
		if len(urls) > 0 {
			suffix.WriteString("\n🔗 According to: " + strings.Join(urls, ", "))
		}
		return answer + suffix.String()
	}
	return answer
}

// formatFileList renders filenames as "[a.txt], [b.txt]".
func formatFileList(files []string) string {
	wrapped := make([]string, len(files))
	for i, f := range files {
		wrapped[i] = fmt.Sprintf("[%s]", f)
	}
	return strings.Join(wrapped, ", ")
}

// splitSources separates URL sources from file sources.
func splitSources(sources []string) (files, urls []string) {
	for _, s := range sources {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			urls = append(urls, s)
		} else {
			files = append(files, s)
		}
	}
	return files, urls
}
