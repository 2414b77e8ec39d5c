// Package notifications sends push notifications for terminal workflow
// and video events through ntfy. When no topic is configured the service
// degrades to a noop.
package notifications
