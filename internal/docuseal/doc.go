/*
Package docuseal embeds the hosted DocuSeal form in a host page.

Everything that matters for signing (rendering, validation, signature capture)
happens inside the hosted service loaded into an iframe. This package only
prepares and talks to that iframe:

  - BuildFormURL: form URL with prefill query parameters
  - NewFrame / Mount: iframe attributes and insertion through a Host
  - IsMessage / ParseEvent / Classifier: inbound postMessage classification
  - Sender: outbound messages to the frame's content window
  - Retry: linear backoff around any fallible call
  - CalculateIframeHeight: content height clamp

# Messages

Inbound payloads have the shape {source, type, data}. A payload belongs to the
frame when source is "docuseal" or type starts with "docuseal.". Unknown event
types are passed through untouched.

Outbound payloads are always tagged with source "parent" and posted to an
explicit target origin:

	sender, err := docuseal.NewSender("https://docuseal.com", logger)
	if err != nil {
		return err
	}
	sender.Send(frame, docuseal.OutboundMessage{Type: "reset"})

# Frames

Frame construction is pure. Inserting the node into a document goes through the
Host interface so it can be backed by a server-rendered page or any other tree:

	doc := docuseal.NewDocument("Sign")
	frame := docuseal.NewFrame(src, docuseal.FrameConfig{AllowFullscreen: true})
	node, err := docuseal.Mount(doc, frame)

All functions are safe for concurrent use.
*/
package docuseal
