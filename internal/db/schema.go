package db

// Timestamps stay TEXT in the platforms' own export formats; package timeutil
// normalizes them on read.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS gs_courses (
  cid INTEGER PRIMARY KEY,
  name TEXT,
  shortname TEXT,
  year TEXT,
  lti INTEGER
);

CREATE TABLE IF NOT EXISTS gs_students (
  sid INTEGER,
  student_id INTEGER,
  name TEXT,
  emails TEXT,
  user_id INTEGER,
  course_id INTEGER,
  role TEXT
);

CREATE TABLE IF NOT EXISTS gs_assignments (
  id INTEGER PRIMARY KEY,
  course_id INTEGER,
  name TEXT,
  assigned TEXT,
  due TEXT
);

CREATE TABLE IF NOT EXISTS gs_submissions (
  first_name TEXT,
  last_name TEXT,
  email TEXT,
  total_score REAL,
  max_points REAL,
  status TEXT,
  submission_id INTEGER,
  submission_time TEXT,
  lateness TEXT,
  sid INTEGER,
  assign_id INTEGER,
  course_id INTEGER
);

CREATE TABLE IF NOT EXISTS gs_extensions (
  user_id INTEGER,
  assign_id INTEGER,
  course_id INTEGER,
  first_name TEXT,
  last_name TEXT,
  email TEXT,
  released_at TEXT,
  due TEXT,
  late_due TEXT,
  time_limit TEXT,
  extension_type TEXT
);

CREATE TABLE IF NOT EXISTS canvas_courses (
  id INTEGER PRIMARY KEY,
  name TEXT,
  sis_course_id TEXT,
  start_at TEXT,
  end_at TEXT
);

CREATE TABLE IF NOT EXISTS canvas_students (
  id INTEGER,
  sis_user_id INTEGER,
  name TEXT,
  email TEXT,
  course_id INTEGER
);

CREATE TABLE IF NOT EXISTS canvas_assignments (
  id INTEGER PRIMARY KEY,
  course_id INTEGER,
  name TEXT,
  unlock_at TEXT,
  due_at TEXT,
  points_possible REAL
);

CREATE TABLE IF NOT EXISTS canvas_submissions (
  id INTEGER PRIMARY KEY,
  user_id INTEGER,
  assignment_id INTEGER,
  score REAL,
  submitted_at TEXT,
  graded_at TEXT,
  late INTEGER,
  seconds_late REAL,
  points_deducted REAL
);

CREATE TABLE IF NOT EXISTS canvas_extensions (
  id INTEGER PRIMARY KEY,
  user_id INTEGER,
  assignment_id INTEGER,
  course_id INTEGER,
  extra_attempts INTEGER,
  extra_time INTEGER,
  late_due_at TEXT,
  extended_due_at TEXT
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS gs_courses (
  cid BIGINT PRIMARY KEY,
  name TEXT,
  shortname TEXT,
  year TEXT,
  lti BIGINT
);

CREATE TABLE IF NOT EXISTS gs_students (
  sid BIGINT,
  student_id BIGINT,
  name TEXT,
  emails TEXT,
  user_id BIGINT,
  course_id BIGINT,
  role TEXT
);

CREATE TABLE IF NOT EXISTS gs_assignments (
  id BIGINT PRIMARY KEY,
  course_id BIGINT,
  name TEXT,
  assigned TEXT,
  due TEXT
);

CREATE TABLE IF NOT EXISTS gs_submissions (
  first_name TEXT,
  last_name TEXT,
  email TEXT,
  total_score DOUBLE PRECISION,
  max_points DOUBLE PRECISION,
  status TEXT,
  submission_id BIGINT,
  submission_time TEXT,
  lateness TEXT,
  sid BIGINT,
  assign_id BIGINT,
  course_id BIGINT
);

CREATE TABLE IF NOT EXISTS gs_extensions (
  user_id BIGINT,
  assign_id BIGINT,
  course_id BIGINT,
  first_name TEXT,
  last_name TEXT,
  email TEXT,
  released_at TEXT,
  due TEXT,
  late_due TEXT,
  time_limit TEXT,
  extension_type TEXT
);

CREATE TABLE IF NOT EXISTS canvas_courses (
  id BIGINT PRIMARY KEY,
  name TEXT,
  sis_course_id TEXT,
  start_at TEXT,
  end_at TEXT
);

CREATE TABLE IF NOT EXISTS canvas_students (
  id BIGINT,
  sis_user_id BIGINT,
  name TEXT,
  email TEXT,
  course_id BIGINT
);

CREATE TABLE IF NOT EXISTS canvas_assignments (
  id BIGINT PRIMARY KEY,
  course_id BIGINT,
  name TEXT,
  unlock_at TEXT,
  due_at TEXT,
  points_possible DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS canvas_submissions (
  id BIGINT PRIMARY KEY,
  user_id BIGINT,
  assignment_id BIGINT,
  score DOUBLE PRECISION,
  submitted_at TEXT,
  graded_at TEXT,
  late BOOLEAN,
  seconds_late DOUBLE PRECISION,
  points_deducted DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS canvas_extensions (
  id BIGINT PRIMARY KEY,
  user_id BIGINT,
  assignment_id BIGINT,
  course_id BIGINT,
  extra_attempts BIGINT,
  extra_time BIGINT,
  late_due_at TEXT,
  extended_due_at TEXT
);
`
