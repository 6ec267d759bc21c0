// Package embed renders host pages that embed a DocuSeal form.
//
// A page carries a prefetch hint for the form, the iframe built by the
// docuseal package, an optional completion message and a small bridge
// script. The bridge listens for messages from the frame, clamps its height,
// and forwards every DocuSeal message to the relay websocket so the server
// can classify it and answer with commands.
//
// Named presets (YAML or TOML) let callers embed a form by name:
//
//	presets:
//	  nda:
//	    src: https://docuseal.com/d/abc
//	    title: Sign the NDA
//	    role: Signer
//	    completed_message:
//	      title: Thanks
//	      body: A copy is on its way to your inbox.
package embed
