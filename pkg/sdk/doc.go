// Package supportrag embeds the support-answer pipeline in another Go program.
//
// The client reads two prebuilt knowledge base indices from Valkey or Redis
// (build them with `supportrag index`), searches the changelog first and
// escalates once to user reviews when the changelog cannot confirm a fix.
//
//	client, err := supportrag.New(ctx,
//	    supportrag.WithValkey("localhost:6379", ""),
//	    supportrag.WithOpenAIEmbedder(supportrag.OpenAIConfig{
//	        APIKey: key, Model: "text-embedding-3-small", Dimensions: 1536,
//	    }),
//	    supportrag.WithGeminiChat(supportrag.GeminiConfig{APIKey: gkey, Model: "gemini-2.5-flash"}),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	reply, err := client.Ask(ctx, "Is the crash on startup fixed?")
//
// Custom providers plug in through the Embedder and ChatModel interfaces.
package supportrag
