// Package relay connects embed pages to the server over a websocket.
//
// The bridge script on every embed page forwards the messages its DocuSeal
// frame posts as envelopes ({"origin", "message"}). The hub classifies each
// envelope with a docuseal.Classifier, answers resize events with the
// clamped height and acknowledges the rest. A session is the server-side
// stand-in for the page's frame: it implements docuseal.FrameHandle, so
// docuseal.Sender can post messages into the form once it has loaded.
//
// Frames sent to the bridge:
//
//	{"type":"ready","session":"relay_01J..."}
//	{"type":"height","kind":"resize","height":800}
//	{"type":"ack","kind":"completed"}
//	{"type":"post","origin":"https://docuseal.com","message":{...}}
//	{"type":"error","error":"untrusted origin"}
package relay
