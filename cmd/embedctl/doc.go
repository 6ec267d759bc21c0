// Command embedctl builds, inspects and probes embedded DocuSeal forms from
// the command line.
//
//	embedctl url https://docuseal.com/d/abc email=a@b.co
//	embedctl frame https://docuseal.com/d/abc --html
//	embedctl height 1800 --max 1500
//	echo '{"type":"docuseal.resize","data":{"height":640}}' | embedctl classify
//	embedctl probe https://docuseal.com/d/abc
//	embedctl page --presets presets.yaml --preset nda > nda.html
package main
