// Package ui provides the terminal presentation layer for the VPN profile
// generator. This file contains the desktop notification system.
package ui

import (
	"github.com/godbus/dbus/v5"

	"github.com/yllada/vpn-profile/common"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod    = notifyService + ".Notify"
	notifyTimeoutMs = int32(5000)
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotificationInfo NotificationType = iota
	NotificationSuccess
	NotificationWarning
	NotificationError
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Icon    string
}

// icon returns the explicit icon or one derived from the type.
func (n Notification) icon() string {
	if n.Icon != "" {
		return n.Icon
	}
	switch n.Type {
	case NotificationSuccess:
		return "network-vpn"
	case NotificationWarning:
		return "dialog-warning"
	case NotificationError:
		return "dialog-error"
	default:
		return "network-vpn"
	}
}

// urgency maps the type onto the freedesktop urgency hint
// (0 low, 1 normal, 2 critical).
func (n Notification) urgency() byte {
	switch n.Type {
	case NotificationError:
		return 2
	case NotificationWarning:
		return 1
	default:
		return 0
	}
}

// DBusNotifier sends notifications over the session bus.
// It implements common.Notifier.
type DBusNotifier struct {
	AppName string
	// Connect opens the bus; defaults to dbus.ConnectSessionBus.
	Connect func() (*dbus.Conn, error)
}

// NewDBusNotifier creates a notifier labelled with the application name.
func NewDBusNotifier() *DBusNotifier {
	return &DBusNotifier{AppName: common.AppName}
}

// Notify sends an informational notification.
func (d *DBusNotifier) Notify(title, message string) error {
	return d.Show(Notification{Title: title, Message: message, Type: NotificationInfo})
}

// Show sends n to the notification daemon.
func (d *DBusNotifier) Show(n Notification) error {
	connect := d.Connect
	if connect == nil {
		connect = func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() }
	}

	conn, err := connect()
	if err != nil {
		return common.WrapError(err, "connect session bus")
	}
	defer conn.Close()

	obj := conn.Object(notifyService, notifyPath)
	call := obj.Call(notifyMethod, 0,
		d.AppName,
		uint32(0),
		n.icon(),
		n.Title,
		n.Message,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(n.urgency())},
		notifyTimeoutMs,
	)
	if call.Err != nil {
		return common.WrapError(call.Err, "send notification")
	}
	return nil
}

// NotifyBuilt announces a freshly written profile.
func NotifyBuilt(n common.Notifier, path string) {
	if err := n.Notify("VPN profile created", path); err != nil {
		common.LogWarn("Error showing notification: %v", err)
	}
}
