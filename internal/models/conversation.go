package models

// Conversation is an ordered sequence of messages, with repair invariants
// enforced by FixConversation before every provider call.
type Conversation struct {
	Messages []*Message `json:"messages"`
}

// FixConversation repairs a conversation so it satisfies the invariants
// required by provider adapters:
//   - Every ToolResponse{id} is preceded by exactly one ToolRequest{id} on
//     a prior assistant turn; orphan ToolResponses are dropped.
//   - Adjacent messages of the same role are coalesced only for the user
//     side; assistant messages are never coalesced.
//   - Elicitation and confirmation (ActionRequired) content never reaches
//     the provider.
//
// Running FixConversation twice is idempotent: the second pass is a no-op
// on the output of the first.
func FixConversation(conv Conversation) Conversation {
	requested := make(map[string]bool)
	messages := make([]*Message, 0, len(conv.Messages))

	for _, msg := range conv.Messages {
		cleaned := stripActionRequired(msg)
		if cleaned == nil {
			continue
		}

		if cleaned.Role == RoleAssistant {
			for _, part := range cleaned.Content {
				if part.Type == ContentToolRequest && part.ToolRequest != nil {
					requested[part.ToolRequest.ID] = true
				}
			}
		}

		if cleaned.Role == RoleUser {
			cleaned.Content = dropOrphanToolResponses(cleaned.Content, requested)
			if len(cleaned.Content) == 0 {
				continue
			}
		}

		messages = append(messages, cleaned)
	}

	coalesced := coalesceUserMessages(messages)
	return Conversation{Messages: coalesced}
}

// stripActionRequired removes ActionRequired content parts from a message
// (they are user/UI-only and never reach the provider); returns nil if the
// message becomes empty as a result.
func stripActionRequired(msg *Message) *Message {
	var kept []ContentPart
	for _, part := range msg.Content {
		if part.Type == ContentActionRequired {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return nil
	}
	clone := *msg
	clone.Content = kept
	return &clone
}

func dropOrphanToolResponses(content []ContentPart, requested map[string]bool) []ContentPart {
	var kept []ContentPart
	for _, part := range content {
		if part.Type == ContentToolResponse && part.ToolResponse != nil {
			if !requested[part.ToolResponse.ID] {
				continue
			}
		}
		kept = append(kept, part)
	}
	return kept
}

func coalesceUserMessages(messages []*Message) []*Message {
	var out []*Message
	for _, msg := range messages {
		if msg.Role == RoleUser && len(out) > 0 && out[len(out)-1].Role == RoleUser {
			prev := out[len(out)-1]
			merged := *prev
			merged.Content = append(append([]ContentPart{}, prev.Content...), msg.Content...)
			out[len(out)-1] = &merged
			continue
		}
		out = append(out, msg)
	}
	return out
}
