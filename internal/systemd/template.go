package systemd

// WatchTemplate returns the systemd unit for the jdwptap spool daemon.
// ReadWritePaths covers the whole state root as a single mount so the
// spool-to-processed renames stay on one filesystem.
func WatchTemplate() string {
	return `[Unit]
Description=jdwptap capture spool daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User=jdwptap
Group=jdwptap
ExecStart=/usr/local/bin/jdwptap watch
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ProtectKernelTunables=true
RestrictNamespaces=true
MemoryDenyWriteExecute=true
ReadWritePaths=/var/lib/jdwptap
CPUQuota=30%
MemoryMax=256M
TasksMax=30

[Install]
WantedBy=multi-user.target
`
}

// RelayTemplate returns the systemd unit for the relay. The listen and
// target addresses are placeholders the operator edits before install.
func RelayTemplate() string {
	return `[Unit]
Description=jdwptap relay
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User=jdwptap
Group=jdwptap
ExecStart=/usr/local/bin/jdwptap relay --listen 127.0.0.1:5006 --target 127.0.0.1:5005 --capture-dir /var/lib/jdwptap/spool
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ProtectKernelTunables=true
RestrictNamespaces=true
MemoryDenyWriteExecute=true
ReadWritePaths=/var/lib/jdwptap
CPUQuota=30%
MemoryMax=128M
TasksMax=30

[Install]
WantedBy=multi-user.target
`
}
