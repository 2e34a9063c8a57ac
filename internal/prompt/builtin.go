package prompt

// builtinTemplates maps template filename to content.
var builtinTemplates = map[string]string{
	"draft.md":     draftTemplate,
	"factcheck.md": factcheckTemplate,
	"review.md":    reviewTemplate,
	"edit.md":      editTemplate,
}

const draftTemplate = `Conduct comprehensive research on the following topic:

Topic: {{topic}}
{{#if requirements}}

Additional requirements:
{{requirements}}
{{/if}}
{{#if artifact}}

An earlier draft exists. Expand and strengthen it rather than starting over:
---
{{artifact}}
---
{{/if}}
{{#if feedback}}

Reviewer feedback from the previous round:
---
{{feedback}}
---
{{/if}}

Please provide:
1. A detailed overview of the topic
2. Key findings and insights
3. Relevant sources and citations
4. Areas that need further investigation

Format your response as a structured research document section.`

const factcheckTemplate = `Fact-check the following research content:

Content:
---
{{artifact}}
---
{{#if sources}}

Sources to validate:
{{sources}}
{{/if}}

Please:
1. Identify factual claims in the content
2. Verify each claim against available sources and general knowledge
3. Check for inconsistencies or contradictions
4. Validate citations - ensure they support the claims made
5. Flag unsupported claims that lack evidence

Provide:
- List of verified claims
- List of unverified or questionable claims
- Any inconsistencies found
- Overall factual accuracy score (0-1) on a line of the form "accuracy score: 0.8"`

const reviewTemplate = `Review the following research content on the topic: "{{topic}}"

Content to review:
---
{{artifact}}
---
{{#if factcheck_notes}}

Fact-checking findings to take into account:
---
{{factcheck_notes}}
---
{{/if}}

Please provide a comprehensive review covering:
1. Methodological quality: data sources and analytical approach
2. Logical coherence: flow, argument structure, and consistency
3. Clarity and presentation: writing clarity, organization, readability
4. Completeness: missing information or underdeveloped sections
5. Citations and sources: quality and relevance

Provide:
- Overall quality score (0-1) on a line of the form "overall score: 0.7"
- Specific strengths and weaknesses
- Detailed recommendations for improvement
- Priority areas that need revision

Be thorough but constructive.`

const editTemplate = `Edit and synthesize the following research content on: "{{topic}}"

Original content:
---
{{artifact}}
---
{{#if feedback}}

Review feedback to incorporate:
---
{{feedback}}
---
{{/if}}
{{#if factcheck_notes}}

Fact-checking findings to address:
---
{{factcheck_notes}}
---
{{/if}}

Please:
1. Synthesize the content into a coherent, well-structured document
2. Improve clarity and readability
3. Ensure consistency in terminology and style
4. Integrate the reviewer feedback (if provided)
5. Enhance structure with clear sections and transitions
6. Verify citations are properly formatted
7. Maintain accuracy while improving presentation

Respond with the improved document only, no commentary.`
