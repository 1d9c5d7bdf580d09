// Package bridge forwards a device's sample stream to MQTT and websocket
// consumers and MQTT commands back to the device.
//
// Topics, relative to the queue prefix:
//
//	<id>/samples  JSON {"raw": 1234, "volts": 0.094}, one per sample
//	<id>/reply    JSON {"kind": "error", "text": "...", "byte": 120}
//	<id>/status   "online", retained; "offline" as last will
//	<id>/cmd      each payload byte is forwarded as one command
package bridge
