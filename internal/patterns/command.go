package patterns

import "github.com/Wikid82/sentinel/internal/security"

var op = []string{TagOperator}
var destructive = []string{TagDestructive}

var commandRules = []rule{
	{
		id: "cmd-op-and-or", category: "command_chaining", sub: "and_or",
		expr: `(?:&&|\|\|)\s*[A-Za-z_./~$]`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium, tags: op,
		desc:     "Conditional chaining into another command",
		examples: []string{"ls && rm file", "test -f x || wget y"},
	},
	{
		id: "cmd-op-semicolon", category: "command_chaining", sub: "sequence",
		expr: `;\s*(?:rm|curl|wget|bash|sh|zsh|cat|chmod|chown|nc|ncat|python[0-9.]*|perl|ruby|php|sudo|su|dd|mkfs(?:\.\w+)?|kill|killall|shutdown|reboot|eval|exec|export|env|scp|ssh|base64)\b`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow, tags: op,
		desc: "Semicolon sequencing into a shell command",
	},
	{
		id: "cmd-op-pipe-shell", category: "pipe_to_shell", sub: "interpreter",
		expr: `\|\s*(?:sudo\s+)?(?:sh|bash|zsh|ksh|dash|python[0-9.]*|perl|ruby|node|php)\b`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: op,
		desc:     "Pipes data straight into an interpreter",
		examples: []string{"curl x | sh"},
	},
	{
		id: "cmd-op-pipe", category: "command_chaining", sub: "pipe",
		expr: `\|\s*(?:grep|awk|sed|xargs|tee|base64|nc|ncat|curl|wget)\b`,
		sev:  security.SeverityLow, fp: security.FPRiskHigh, tags: op,
		desc: "Pipe into a text or network tool",
	},
	{
		id: "cmd-op-backtick", category: "command_substitution", sub: "backtick",
		expr: "`[^`\\n]{1,200}`",
		sev:  security.SeverityMedium, fp: security.FPRiskHigh, tags: op,
		desc: "Backtick command substitution",
	},
	{
		id: "cmd-op-dollar-paren", category: "command_substitution", sub: "dollar_paren",
		expr: `\$\([^()\n]{1,200}\)`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium, tags: op,
		desc:     "$( ) command substitution",
		examples: []string{"echo $(whoami)"},
	},
	{
		id: "cmd-op-redirect-sensitive", category: "redirection", sub: "sensitive_target",
		expr: `>{1,2}\s*(?:/etc/|/dev/sd[a-z]|/dev/nvme|/boot/|~/\.(?:bashrc|profile|zshrc|ssh/))`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: op,
		desc: "Output redirected over a system or profile file",
	},
	{
		id: "cmd-op-redirect", category: "redirection", sub: "file",
		expr: `\d?>{1,2}\s*/(?:[A-Za-z0-9._-]+/)*[A-Za-z0-9._-]+`,
		sev:  security.SeverityLow, fp: security.FPRiskHigh, tags: op,
		desc: "Output redirected to an absolute path",
	},
	{
		id: "cmd-rm-rf", category: "destructive_command", sub: "recursive_delete",
		expr: `\brm\s+(?:-[A-Za-z]*\s+)*-(?:[A-Za-z]*[rR][A-Za-z]*[fF]|[A-Za-z]*[fF][A-Za-z]*[rR])[A-Za-z]*\b|\brm\b[^\n;|&]*--no-preserve-root`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: destructive,
		desc:     "Forced recursive delete",
		examples: []string{"rm -rf /", "rm -fr ~"},
	},
	{
		id: "cmd-dd", category: "destructive_command", sub: "raw_copy",
		expr: `\bdd\s+(?:[a-z]+=\S+\s+)*(?:if|of)=\S+`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: destructive,
		desc: "Raw block copy with dd",
	},
	{
		id: "cmd-mkfs", category: "destructive_command", sub: "format",
		expr: `\bmkfs(?:\.[a-z0-9]+)?\s+\S`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: destructive,
		desc: "Filesystem format",
	},
	{
		id: "cmd-fork-bomb", category: "destructive_command", sub: "fork_bomb",
		expr: `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: destructive,
		desc: "Bash fork bomb",
	},
	{
		id: "cmd-wipe-device", category: "destructive_command", sub: "device_wipe",
		expr: `>\s*/dev/sd[a-z]\b|\bshred\s+(?:-[a-z]+\s+)*/dev/`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: destructive,
		desc: "Overwrites a block device",
	},
	{
		id: "cmd-kill-all", category: "destructive_command", sub: "process_kill",
		expr: `\bkill\s+-9\s+-1\b|\bkillall\s+-9\b`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: destructive,
		desc: "Kills every process",
	},
	{
		id: "cmd-shutdown", category: "destructive_command", sub: "power",
		expr: `(?:^|[;&|]\s*|\bsudo\s+)(?:shutdown|reboot|halt|poweroff)\b`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium, tags: destructive,
		desc: "Shuts down or reboots the host",
	},
	{
		id: "cmd-chmod-777", category: "privilege_escalation", sub: "world_writable",
		expr: `\bchmod\s+(?:-R\s+)?0?777\b`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow,
		desc: "Makes files world writable",
	},
	{
		id: "cmd-sudo-shell", category: "privilege_escalation", sub: "root_shell",
		expr: `\bsudo\s+(?:-[A-Za-z]+\s+)*(?:su|bash|sh|-i|-s)\b`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium,
		desc: "Spawns a root shell",
	},
	{
		id: "cmd-reverse-shell", category: "reverse_shell", sub: "callback",
		expr: `\b(?:nc|ncat|netcat)\b[^\n]*\s-[a-z]*e\s|/dev/tcp/\d{1,3}(?:\.\d{1,3}){3}/\d+|\bbash\s+-i\s+>&`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow,
		desc: "Reverse shell callback",
	},
	{
		id: "cmd-history-wipe", category: "defense_evasion", sub: "history",
		expr: `\bhistory\s+-c\b|\bunset\s+HISTFILE\b`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow,
		desc: "Clears shell history",
	},
	{
		id: "cmd-remote-download", category: "remote_download", sub: "fetch",
		expr: `\b(?:curl|wget)\s+(?:-[A-Za-z]+\s+)*(?:https?://)?[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[a-z]{2,}`,
		sev:  security.SeverityLow, fp: security.FPRiskHigh,
		desc: "Fetches a remote resource",
	},
}
