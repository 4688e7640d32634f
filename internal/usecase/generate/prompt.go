package generate

import (
	"fmt"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/answer"
	"github.com/kailas-cloud/supportrag/internal/domain/contextset"
)

const changelogInstruction = `You are a support assistant checking the product changelog.
Use only the changelog excerpts in the context to answer the customer's question.
If the excerpts do not confirm that the issue was fixed or the feature was shipped, reply with exactly ` +
	answer.NotFound + ` and nothing else.
Otherwise answer in at most three sentences and mention the version when the changelog names one.`

const verdictInstruction = `You are a support assistant checking the product changelog.
Use only the changelog excerpts in the context to answer the customer's question.
Set found to true only when the excerpts confirm that the issue was fixed or the feature was shipped,
and put a reply of at most three sentences in answer, mentioning the version when the changelog names one.
Otherwise set found to false and leave answer empty.`

const supportInstruction = `You are a friendly customer support assistant.
Use the user reviews and developer replies in the context to answer the customer's question.
If the context does not cover it, say that you don't know and suggest contacting support.
Use three sentences maximum and keep the answer concise.`

// Messages builds [system instruction, user(question + context)] for an iteration.
func Messages(question string, set contextset.Set, iteration int, mode Mode) []domain.Message {
	system := supportInstruction
	if iteration == 0 {
		system = changelogInstruction
		if mode == ModeStructured {
			system = verdictInstruction
		}
	}
	return []domain.Message{
		domain.SystemMessage(system),
		domain.UserMessage(userPrompt(question, set)),
	}
}

func userPrompt(question string, set contextset.Set) string {
	return fmt.Sprintf("Question: %s\nContext: %s\nAnswer:", question, set.Text())
}
