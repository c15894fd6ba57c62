package inspector

const (
	pingSQL = `SELECT 1`

	listTablesSQL = `
      SELECT
        table_name,
        table_type
      FROM information_schema.tables
      WHERE table_schema = 'public'
      ORDER BY table_name`

	listColumnsSQL = `
      SELECT
        column_name,
        data_type,
        is_nullable,
        column_default
      FROM information_schema.columns
      WHERE table_schema = 'public' AND table_name = $1
      ORDER BY ordinal_position`

	rdbCountsSQL = `
      SELECT 'meter_info' as table_name, COUNT(*) as row_count FROM rdb.meter_info
      UNION ALL
      SELECT 'user_info' as table_name, COUNT(*) as row_count FROM rdb.user_info
      UNION ALL
      SELECT 'area_info' as table_name, COUNT(*) as row_count FROM rdb.area_info
      UNION ALL
      SELECT 'alarm_rules' as table_name, COUNT(*) as row_count FROM rdb.alarm_rules`

	tsdbCountsSQL = `
      SELECT
        'meter_data' as table_name,
        COUNT(*) as row_count,
        MIN(ts) as earliest_data,
        MAX(ts) as latest_data
      FROM tsdb.meter_data`

	integritySQL = `
      SELECT
        'orphaned_meters' as check_type,
        COUNT(*) as count
      FROM tsdb.meter_data md
      LEFT JOIN rdb.meter_info mi ON md.meter_id = mi.meter_id
      WHERE mi.meter_id IS NULL

      UNION ALL

      SELECT
        'meters_without_data' as check_type,
        COUNT(*) as count
      FROM rdb.meter_info mi
      LEFT JOIN tsdb.meter_data md ON mi.meter_id = md.meter_id
      WHERE md.meter_id IS NULL`

	versionSQL = `SELECT version()`

	tableCountSQL = `
      SELECT
        $1::text as database_name,
        COUNT(*) as table_count
      FROM information_schema.tables
      WHERE table_schema = $1`

	generateDataSQL = `
      INSERT INTO tsdb.meter_data(ts, voltage, current, power, energy, meter_id)
      SELECT
        NOW()-(s*10)::int * INTERVAL '1 minute',
        220.0 + (s%10)::float,
        5.0 + (s%15)::float * 0.1,
        1000.0 + (s%20)::float * 50,
        5000.0 + s::float * 10,
        'M' || ((s%100)+1)::text
      FROM generate_series(1, $1) AS s`

	metersSQL = `
      SELECT
        mi.meter_id,
        mi.manufacturer,
        mi.status,
        ui.user_name,
        ai.area_name
      FROM rdb.meter_info mi
      JOIN rdb.user_info ui ON mi.user_id = ui.user_id
      JOIN rdb.area_info ai ON mi.area_id = ai.area_id
      ORDER BY mi.meter_id
      LIMIT 100`

	areasSQL = `
      SELECT area_id, area_name, manager, region
      FROM rdb.area_info
      ORDER BY area_name`
)
