package services

import (
	"sync"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/metrics"
)

// Failed-login alerting thresholds
const (
	FailedLoginWindow    = 10 * time.Minute
	FailedLoginThreshold = 5
	alertCooldown        = time.Hour
)

// SecurityEventMonitor counts failed logins per IP and raises an alert past a threshold
type SecurityEventMonitor struct {
	mu           sync.Mutex
	failedLogins map[string][]time.Time
	alertedIPs   map[string]time.Time
	alerts       []SecurityAlert
}

// SecurityAlert represents a triggered security alert
type SecurityAlert struct {
	Timestamp time.Time
	IP        string
	Reason    string
}

// Monitor is the process-wide monitor
var Monitor = NewSecurityMonitor()

// NewSecurityMonitor creates an empty monitor
func NewSecurityMonitor() *SecurityEventMonitor {
	return &SecurityEventMonitor{
		failedLogins: make(map[string][]time.Time),
		alertedIPs:   make(map[string]time.Time),
	}
}

// TrackFailedLogin records a failed login attempt and reports whether it raised an alert
func (m *SecurityEventMonitor) TrackFailedLogin(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-FailedLoginWindow)
	recent := []time.Time{now}
	for _, t := range m.failedLogins[ip] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}
	m.failedLogins[ip] = recent

	if len(recent) < FailedLoginThreshold {
		return false
	}
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < alertCooldown {
		return false
	}

	m.alertedIPs[ip] = now
	alert := SecurityAlert{Timestamp: now, IP: ip, Reason: "Multiple failed logins detected"}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > 100 {
		m.alerts = m.alerts[:100]
	}
	metrics.SecurityAlerts.Inc()
	logger.L().Warn("[SECURITY ALERT] "+alert.Reason, "ip", ip, "attempts", len(recent))
	return true
}

// GetRecentAlerts returns a copy of recent alerts, newest first
func (m *SecurityEventMonitor) GetRecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	alertsCopy := make([]SecurityAlert, len(m.alerts))
	copy(alertsCopy, m.alerts)
	return alertsCopy
}

// Cleanup drops attempts and alerts that fell out of their window
func (m *SecurityEventMonitor) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for ip, attempts := range m.failedLogins {
		if len(attempts) == 0 || now.Sub(attempts[0]) > FailedLoginWindow {
			delete(m.failedLogins, ip)
		}
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) > alertCooldown {
			delete(m.alertedIPs, ip)
		}
	}
}
