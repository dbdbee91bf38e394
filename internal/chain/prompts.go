package chain

import (
	"github.com/tmc/langchaingo/prompts"
)

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question.
Chat History:
{{.chat_history}}
Follow Up Input: {{.question}}
Standalone question:`

const qaTemplate = `You are a helpful AI assistant. Your task is to deliver comprehensive, concise, and highly readable answers. Use the following pieces of context to answer the question at the end.
- Be succinct: give short, clear answers and only elaborate when the details are critical for understanding.
- Avoid repetition: do not repeat information already given earlier in the conversation.
- Provide context: if the answer refers to a topic that may need clarification, finish by asking whether the user wants more details.
- Be resourceful: if the answer is not in the context, respond as an experienced learning and development professional offering a helpful solution.
- Make it skimmable: list no more than seven main points as separate bullet items, splitting larger topics into sub-points or paragraphs.
{{.context}}
Question: {{.question}}
Helpful, clear, and organized answer:`

func condensePrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(condenseTemplate, []string{"chat_history", "question"})
}

func qaPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(qaTemplate, []string{"context", "question"})
}
