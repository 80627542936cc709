// Package manifest writes the Chrome native messaging host manifest that
// tells the browser which binary to launch and which extensions may talk
// to it.
package manifest

const (
	// HostName is the name the extension passes to chrome.runtime.connectNative.
	HostName = "com.task_agents.native_host"

	// Description is shown by Chrome in diagnostics.
	Description = "Task Agents native messaging host"

	// OriginScheme prefixes every allowed origin.
	OriginScheme = "chrome-extension://"

	// TypeStdio is the only transport Chrome supports.
	TypeStdio = "stdio"

	// HostsDirName is the directory Chromium-based browsers scan for manifests.
	HostsDirName = "NativeMessagingHosts"
)
