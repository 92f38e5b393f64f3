// Package editloop implements the agentic edit loop at the heart of
// redline: a conversation/tool-calling state machine that turns model
// output into precise, auditable document mutations.
//
// A Session binds one document Buffer to one agent loop. The human's request
// seeds the conversation; the model edits through the occurrence-exact edit
// tool and re-inspects through the read tool; the loop runs until a model
// turn emits no tool calls, at which point control returns to the human,
// who may submit feedback into the same conversation.
//
// The single correctness property everything hangs on is the exact-count
// gate in Buffer.Replace: a mutation commits only when the number of literal
// occurrences of the search text equals the count the model declared.
// Over-matching becomes a loud, recoverable tool error the model can
// self-correct from by adding surrounding context.
//
// # Quick Start
//
//	buf := editloop.NewBuffer(documentText)
//	session := editloop.NewSession(buf, client, nil)
//	defer session.Close()
//
//	go func() {
//	    for event := range session.Events() {
//	        // render deltas, tool activity, diffs
//	    }
//	}()
//
//	if err := session.Submit(ctx, "Fix the typos in the intro"); err != nil {
//	    log.Fatal(err)
//	}
package editloop
