// Package bioinfo holds the domain prompt templates layered on the RAG
// manager. It is purely data: system prompts and user prompt builders for
// each query type, with no additional logic.
package bioinfo

import (
	"fmt"

	"github.com/xhad/biorag/internal/models"
)

const (
	generalSystem = "You are a helpful assistant that answers questions based on the provided context."

	codeSystem = "You are a bioinformatics expert that answers questions based on the provided code context."

	researchSystem = "You are a bioinformatics research expert that helps with research brainstorming and planning. " +
		"You excel at connecting ideas from papers with practical implementation approaches."

	analysisSystem = "You are a research synthesis expert. Provide clear, comprehensive summaries of research topics."

	implementationSystem = "You are a bioinformatics software engineer that provides detailed implementation guidance."
)

// SystemPrompt returns the system prompt for a query type.
func SystemPrompt(queryType models.QueryType) string {
	switch queryType {
	case models.QueryCode:
		return codeSystem
	case models.QueryResearch:
		return researchSystem
	default:
		return generalSystem
	}
}

// QueryPrompt builds the user prompt for a query, combining the retrieved
// context block with the question.
func QueryPrompt(queryType models.QueryType, context, question string) string {
	switch queryType {
	case models.QueryCode:
		return fmt.Sprintf(`You are a bioinformatics expert. Based on the following code context, please answer the question.

Context:
%s

Question: %s

Please provide a detailed answer that:
1. Explains the code functionality
2. Highlights important implementation details
3. Suggests potential improvements or alternatives
4. References specific parts of the code when relevant

Answer:`, context, question)

	case models.QueryResearch:
		return fmt.Sprintf(`As a bioinformatics research assistant, help brainstorm ideas for the following topic.

Topic: %s

Relevant Context from Papers and Code:
%s

Please provide a comprehensive research plan covering:

1. Literature Review & Current State:
   - Summarize key findings from the relevant papers
   - Identify gaps in current research

2. Research Questions:
   - Formulate specific questions based on the literature
   - Suggest novel angles based on the papers

3. Methodology Suggestions:
   - Recommend approaches based on successful methods in the papers
   - Consider computational requirements and feasibility

4. Next Steps:
   - Prioritize research questions
   - Outline a timeline for implementation

Format your response in a clear, structured way, with specific references to the papers and code when relevant.`, question, context)

	default:
		return fmt.Sprintf(`Based on the following context, please answer the question.

Context:
%s

Question: %s

Answer:`, context, question)
	}
}

// AnalysisPrompt builds the prompt for synthesizing an analysis of the papers
// relevant to a topic.
func AnalysisPrompt(topic, context string) string {
	return fmt.Sprintf(`Based on the following papers, provide a comprehensive summary of the current state of research on %s.

Relevant Context:
%s

Please provide:
1. Key themes and trends
2. Major findings and contributions
3. Connections between the papers
4. Gaps in current research
5. Future directions

Provide a concise summary (3-4 paragraphs).`, topic, context)
}

// ImplementationPrompt builds the prompt for implementation suggestions on a
// topic, grounded in the retrieved papers and code.
func ImplementationPrompt(topic, context string) string {
	return fmt.Sprintf(`Based on the following papers and code, provide specific implementation suggestions.

Topic: %s

Relevant Context:
%s

Please provide:

1. Code Structure:
   - Recommended project organization
   - Key modules and their responsibilities
   - Data flow and processing pipeline

2. Technology Stack:
   - Programming languages and frameworks
   - Key libraries and tools

3. Implementation Details:
   - Specific algorithms and methods to implement
   - Testing and validation approaches

Format your response with specific code examples and implementation details when possible.`, topic, context)
}

// AnalysisSystem and ImplementationSystem expose the fixed system prompts
// used by the topic-level operations.
func AnalysisSystem() string       { return analysisSystem }
func ImplementationSystem() string { return implementationSystem }
