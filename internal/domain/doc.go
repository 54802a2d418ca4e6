// Package domain contains the core entities of the task platform: tasks
// and their append-only history, channels and memberships, notifications,
// and the authenticated session principal. Entities validate themselves;
// persistence and delivery concerns live elsewhere.
package domain
