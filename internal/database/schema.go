package database

import (
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/pkg/security"
)

// textSize makes ent pick an unbounded text type.
const textSize = 2147483647

var (
	// OrganizationsColumns holds the columns for the "organizations" table.
	OrganizationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Unique: true, Size: 100},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	OrganizationsTable = &schema.Table{
		Name:       "organizations",
		Columns:    OrganizationsColumns,
		PrimaryKey: []*schema.Column{OrganizationsColumns[0]},
	}

	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "email", Type: field.TypeString, Unique: true, Size: 255},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "first_name", Type: field.TypeString, Size: 100, Default: ""},
		{Name: "last_name", Type: field.TypeString, Size: 100, Default: ""},
		{Name: "role", Type: field.TypeEnum, Enums: enumValues(models.Roles), Default: string(models.RoleUser)},
		{Name: "organization_id", Type: field.TypeUUID, Nullable: true},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// TasksColumns holds the columns for the "tasks" table.
	TasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "title", Type: field.TypeString, Size: 200},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "slug", Type: field.TypeString, Unique: true, Size: 255},
		{Name: "task_type", Type: field.TypeEnum, Enums: enumValues(models.TaskTypes), Default: string(models.TypeTask)},
		{Name: "priority", Type: field.TypeEnum, Enums: enumValues(models.TaskPriorities), Default: string(models.PriorityMedium)},
		{Name: "status", Type: field.TypeEnum, Enums: enumValues(models.TaskStatuses), Default: string(models.StatusPending)},
		{Name: "author_id", Type: field.TypeUUID},
		{Name: "assignee_id", Type: field.TypeUUID},
		{Name: "estimated_hours", Type: field.TypeFloat64, Nullable: true},
		{Name: "actual_hours", Type: field.TypeFloat64, Default: 0},
		{Name: "start_date", Type: field.TypeTime, Nullable: true},
		{Name: "due_date", Type: field.TypeTime, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "is_public", Type: field.TypeBool, Default: false},
		{Name: "tags", Type: field.TypeString, Size: 500, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	TasksTable = &schema.Table{
		Name:       "tasks",
		Columns:    TasksColumns,
		PrimaryKey: []*schema.Column{TasksColumns[0]},
	}

	// TaskAssigneesColumns holds the columns for the "task_assignees" table.
	TaskAssigneesColumns = []*schema.Column{
		{Name: "task_id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "assigned_at", Type: field.TypeTime},
		{Name: "assigned_by", Type: field.TypeUUID, Nullable: true},
	}
	TaskAssigneesTable = &schema.Table{
		Name:       "task_assignees",
		Columns:    TaskAssigneesColumns,
		PrimaryKey: []*schema.Column{TaskAssigneesColumns[0], TaskAssigneesColumns[1]},
	}

	// SubtasksColumns holds the columns for the "subtasks" table.
	SubtasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "title", Type: field.TypeString, Size: 200},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "parent_task_id", Type: field.TypeUUID},
		{Name: "assignee_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeEnum, Enums: enumValues(models.TaskStatuses), Default: string(models.StatusPending)},
		{Name: "priority", Type: field.TypeEnum, Enums: enumValues(models.TaskPriorities), Default: string(models.PriorityMedium)},
		{Name: "estimated_hours", Type: field.TypeFloat64, Nullable: true},
		{Name: "actual_hours", Type: field.TypeFloat64, Default: 0},
		{Name: "due_date", Type: field.TypeTime, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "order_index", Type: field.TypeInt, Default: 0},
		{Name: "depends_on_subtask_id", Type: field.TypeUUID, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	SubtasksTable = &schema.Table{
		Name:       "subtasks",
		Columns:    SubtasksColumns,
		PrimaryKey: []*schema.Column{SubtasksColumns[0]},
	}

	// TimeLogsColumns holds the columns for the "time_logs" table.
	TimeLogsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "task_id", Type: field.TypeUUID},
		{Name: "subtask_id", Type: field.TypeUUID, Nullable: true},
		{Name: "start_time", Type: field.TypeTime},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
		{Name: "duration_minutes", Type: field.TypeInt, Default: 0},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	TimeLogsTable = &schema.Table{
		Name:       "time_logs",
		Columns:    TimeLogsColumns,
		PrimaryKey: []*schema.Column{TimeLogsColumns[0]},
	}

	// TaskCommentsColumns holds the columns for the "task_comments" table.
	TaskCommentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "task_id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "content", Type: field.TypeString, Size: textSize},
		{Name: "is_internal", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	TaskCommentsTable = &schema.Table{
		Name:       "task_comments",
		Columns:    TaskCommentsColumns,
		PrimaryKey: []*schema.Column{TaskCommentsColumns[0]},
	}

	// SecurityEventsColumns holds the columns for the "security_events" table.
	SecurityEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID, Nullable: true},
		{Name: "event_type", Type: field.TypeEnum, Enums: security.ValidEventTypes()},
		{Name: "severity", Type: field.TypeEnum, Enums: security.ValidSeverities(), Default: security.SeverityLow},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "ip_address", Type: field.TypeString, Size: 45, Default: ""},
		{Name: "user_agent", Type: field.TypeString, Size: 500, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	SecurityEventsTable = &schema.Table{
		Name:       "security_events",
		Columns:    SecurityEventsColumns,
		PrimaryKey: []*schema.Column{SecurityEventsColumns[0]},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		OrganizationsTable,
		UsersTable,
		TasksTable,
		TaskAssigneesTable,
		SubtasksTable,
		TimeLogsTable,
		TaskCommentsTable,
		SecurityEventsTable,
	}
)

func init() {
	foreignKey(UsersTable, "organization_id", OrganizationsTable)

	foreignKey(TasksTable, "author_id", UsersTable)
	foreignKey(TasksTable, "assignee_id", UsersTable)
	index(TasksTable, false, "assignee_id")
	index(TasksTable, false, "author_id")
	index(TasksTable, false, "status")
	index(TasksTable, false, "due_date")

	foreignKey(TaskAssigneesTable, "task_id", TasksTable)
	foreignKey(TaskAssigneesTable, "user_id", UsersTable)
	foreignKey(TaskAssigneesTable, "assigned_by", UsersTable)

	foreignKey(SubtasksTable, "parent_task_id", TasksTable)
	foreignKey(SubtasksTable, "assignee_id", UsersTable)
	foreignKey(SubtasksTable, "depends_on_subtask_id", SubtasksTable)
	index(SubtasksTable, false, "parent_task_id")

	foreignKey(TimeLogsTable, "user_id", UsersTable)
	foreignKey(TimeLogsTable, "task_id", TasksTable)
	foreignKey(TimeLogsTable, "subtask_id", SubtasksTable)
	index(TimeLogsTable, false, "user_id")
	index(TimeLogsTable, false, "task_id")
	index(TimeLogsTable, false, "start_time")

	foreignKey(TaskCommentsTable, "task_id", TasksTable)
	foreignKey(TaskCommentsTable, "user_id", UsersTable)
	index(TaskCommentsTable, false, "task_id")

	foreignKey(SecurityEventsTable, "user_id", UsersTable)
	index(SecurityEventsTable, false, "user_id")
	index(SecurityEventsTable, false, "created_at")
}

// foreignKey links column on t to the primary key of ref. Deletes are never
// cascaded by the database; owned rows are removed explicitly.
func foreignKey(t *schema.Table, column string, ref *schema.Table) {
	t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
		Symbol:     fmt.Sprintf("%s_%s_%s", t.Name, ref.Name, column),
		Columns:    []*schema.Column{mustColumn(t, column)},
		RefTable:   ref,
		RefColumns: []*schema.Column{ref.PrimaryKey[0]},
		OnDelete:   schema.NoAction,
	})
}

func index(t *schema.Table, unique bool, columns ...string) {
	idx := &schema.Index{Name: t.Name + "_" + columns[0], Unique: unique}
	for _, name := range columns {
		idx.Columns = append(idx.Columns, mustColumn(t, name))
	}
	t.Indexes = append(t.Indexes, idx)
}

func mustColumn(t *schema.Table, name string) *schema.Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	panic(fmt.Sprintf("database: table %s has no column %s", t.Name, name))
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
